package ports

import (
	"context"
	"errors"

	"guild-jukebox/internal/core/domain"
)

// ErrVoiceTransport marks failures of the underlying voice connection.
// Sessions that observe it are torn down rather than retried.
var ErrVoiceTransport = errors.New("voice transport failure")

type Repository interface {
	GetGuildSettings(ctx context.Context, guildID string) (*domain.GuildSettings, error)
	SetDJRole(ctx context.Context, guildID, roleID string) error

	RecordPlay(ctx context.Context, record domain.PlayRecord) error
	RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.PlayRecord, error)

	LogCommand(ctx context.Context, entry domain.CommandLog) error
	Close()
}

type HistoryRecorder interface {
	RecordPlay(ctx context.Context, record domain.PlayRecord) error
}

type TrackResolver interface {
	Resolve(ctx context.Context, query string) (*domain.Track, error)
}

type VoiceConn interface {
	ChannelID() string
	Speaking(speaking bool) error
	Send(ctx context.Context, frame []byte) error
	Disconnect() error
}

type VoiceTransport interface {
	Join(ctx context.Context, guildID, channelID string) (VoiceConn, error)
}

type FrameSink interface {
	Send(ctx context.Context, frame []byte) error
}

type AudioStreamer interface {
	Stream(ctx context.Context, source string, sink FrameSink) error
}

type ErrorNotifier interface {
	NotifyError(guildID, source, message string) error
}
