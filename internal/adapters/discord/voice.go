package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"guild-jukebox/internal/core/ports"

	"github.com/bwmarrin/discordgo"
)

const defaultSendTimeout = 2 * time.Second

var _ ports.VoiceTransport = (*VoiceTransport)(nil)

type VoiceJoiner interface {
	ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

type VoiceTransport struct {
	joiner      VoiceJoiner
	sendTimeout time.Duration
}

func NewVoiceTransport(joiner VoiceJoiner) *VoiceTransport {
	return &VoiceTransport{joiner: joiner, sendTimeout: defaultSendTimeout}
}

func (t *VoiceTransport) Join(ctx context.Context, guildID, channelID string) (ports.VoiceConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := t.joiner.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("voice join: %w", err)
	}

	slog.Info("Joined voice channel", "guild_id", guildID, "channel_id", channelID)
	return &voiceConn{vc: vc, sendTimeout: t.sendTimeout}, nil
}

type voiceConn struct {
	vc          *discordgo.VoiceConnection
	sendTimeout time.Duration
}

func (c *voiceConn) ChannelID() string {
	c.vc.RLock()
	defer c.vc.RUnlock()
	return c.vc.ChannelID
}

func (c *voiceConn) Speaking(speaking bool) error {
	return c.vc.Speaking(speaking)
}

// Send pushes one opus frame. A frame that cannot be handed over within the
// send timeout means the connection is gone.
func (c *voiceConn) Send(ctx context.Context, frame []byte) error {
	timer := time.NewTimer(c.sendTimeout)
	defer timer.Stop()

	select {
	case c.vc.OpusSend <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("opus send timeout after %v: %w", c.sendTimeout, ports.ErrVoiceTransport)
	}
}

func (c *voiceConn) Disconnect() error {
	return c.vc.Disconnect()
}

// SessionLeaver is told when the bot has left a guild's voice channel.
type SessionLeaver interface {
	Left(guildID string) bool
}

// HandleVoiceStateUpdate destroys the guild's session when the bot itself
// leaves voice, whether kicked, moved out or disconnected by Discord.
func HandleVoiceStateUpdate(botUserID string, v *discordgo.VoiceStateUpdate, sessions SessionLeaver) bool {
	if v == nil || v.VoiceState == nil || v.UserID != botUserID || v.ChannelID != "" {
		return false
	}

	if sessions.Left(v.GuildID) {
		slog.Info("Bot left voice, session destroyed", "guild_id", v.GuildID)
		return true
	}
	return false
}
