package domain

import "time"

type Track struct {
	URL         string
	StreamURL   string
	Title       string
	Author      string
	Duration    time.Duration
	RequestedBy string
}

// DisplayTitle falls back to the source URL for tracks without metadata.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.URL
}

type GuildSettings struct {
	GuildID  string
	DJRoleID string
}

type PlayRecord struct {
	GuildID     string
	URL         string
	Title       string
	RequestedBy string
	PlayedAt    time.Time
}

type CommandStatus string

const (
	CommandSuccess  CommandStatus = "success"
	CommandFailure  CommandStatus = "failure"
	CommandUnknown  CommandStatus = "unknown"
	CommandDenied   CommandStatus = "denied"
	CommandThrottle CommandStatus = "throttled"
)

type CommandLog struct {
	GuildID   string
	ChannelID string
	UserID    string
	Command   string
	Status    CommandStatus
	Duration  time.Duration
	CreatedAt time.Time
}
