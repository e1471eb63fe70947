package commands

import (
	"context"
	"errors"
	"fmt"

	"guild-jukebox/internal/adapters/discord/formatting"
	"guild-jukebox/internal/adapters/resolver"
	"guild-jukebox/internal/core/services/playback"
)

const historyLimit = 10

func (h *BotHandler) Play(ctx context.Context, c *Context) error {
	query := c.Option("query")
	if query == "" {
		return Userf(formatting.MsgQueryRequired)
	}

	channelID := c.VoiceChannelID()
	if channelID == "" {
		return Userf(formatting.MsgNotInVoice)
	}

	track, err := h.Resolver.Resolve(ctx, query)
	switch {
	case errors.Is(err, resolver.ErrUnsupportedQuery):
		return UserErr(formatting.MsgUnsupportedQuery, err)
	case errors.Is(err, resolver.ErrNoAudio):
		return UserErr(formatting.MsgNoAudio, err)
	case err != nil:
		return fmt.Errorf("resolve %q: %w", query, err)
	}
	track.RequestedBy = c.Username

	_, position, err := h.Playback.Play(ctx, c.GuildID, channelID, *track)
	if err != nil {
		if errors.Is(err, playback.ErrNoVoiceChannel) {
			return UserErr(formatting.MsgNotInVoice, err)
		}
		return fmt.Errorf("start playback: %w", err)
	}

	return c.Reply(formatting.Queued(*track, position))
}

func (h *BotHandler) Pause(ctx context.Context, c *Context) error {
	return h.control(c, h.Playback.Pause(c.GuildID), formatting.MsgPaused)
}

func (h *BotHandler) Resume(ctx context.Context, c *Context) error {
	return h.control(c, h.Playback.Resume(c.GuildID), formatting.MsgResumed)
}

func (h *BotHandler) Skip(ctx context.Context, c *Context) error {
	skipped, err := h.Playback.Skip(c.GuildID)
	return h.control(c, err, formatting.MsgSkipped(skipped.DisplayTitle()))
}

func (h *BotHandler) Stop(ctx context.Context, c *Context) error {
	return h.control(c, h.Playback.Stop(c.GuildID), formatting.MsgStopped)
}

// control replies to a playback control. Invalid state such as pausing
// twice is reported to the user as information, not as a failure.
func (h *BotHandler) control(c *Context, err error, success string) error {
	if err == nil {
		return c.Reply(formatting.Success("Playback", success))
	}
	if msg, ok := stateMessage(err); ok {
		return c.Reply(formatting.Info("Playback", msg))
	}
	return err
}

func stateMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, playback.ErrNoSession), errors.Is(err, playback.ErrSessionClosed):
		return formatting.MsgNoSession, true
	case errors.Is(err, playback.ErrNothingPlaying):
		return formatting.MsgNothingPlaying, true
	case errors.Is(err, playback.ErrAlreadyPaused):
		return formatting.MsgAlreadyPaused, true
	case errors.Is(err, playback.ErrNotPaused):
		return formatting.MsgNotPaused, true
	}
	return "", false
}

func (h *BotHandler) Queue(ctx context.Context, c *Context) error {
	snap, err := h.Playback.Snapshot(c.GuildID)
	if err != nil {
		return h.control(c, err, "")
	}
	embed, files := formatting.Queue(snap.Current, snap.Queue, snap.Paused)
	return c.Reply(embed, files...)
}

func (h *BotHandler) NowPlaying(ctx context.Context, c *Context) error {
	snap, err := h.Playback.Snapshot(c.GuildID)
	if err != nil {
		return h.control(c, err, "")
	}
	return c.Reply(formatting.NowPlaying(snap.Current, snap.Paused))
}

func (h *BotHandler) History(ctx context.Context, c *Context) error {
	records, err := h.Settings.RecentPlays(ctx, c.GuildID, historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	return c.Reply(formatting.History(records))
}
