package commands

import (
	"context"

	"guild-jukebox/internal/adapters/discord/formatting"
)

func (h *BotHandler) Ping(ctx context.Context, c *Context) error {
	return c.Reply(formatting.Info("Ping", formatting.MsgPong(c.Session.HeartbeatLatency())))
}

func (h *BotHandler) Help(ctx context.Context, c *Context) error {
	var entries []formatting.HelpEntry
	if h.Commands != nil {
		for _, cmd := range h.Commands.All() {
			entries = append(entries, formatting.HelpEntry{
				Name:        cmd.Name,
				Description: cmd.Description,
				Category:    cmd.Category,
			})
		}
	}
	return c.Reply(formatting.Help(entries, h.Prefix))
}
