package commands

import (
	"context"
	"fmt"

	"guild-jukebox/internal/adapters/discord/formatting"
)

func (h *BotHandler) SetDJRole(ctx context.Context, c *Context) error {
	roleID := c.Option("role")

	if err := h.Settings.SetDJRole(ctx, c.GuildID, roleID); err != nil {
		return fmt.Errorf("save dj role: %w", err)
	}

	if roleID == "" {
		return c.Reply(formatting.Success("Settings", formatting.MsgDJRoleCleared))
	}
	return c.Reply(formatting.Success("Settings", formatting.MsgDJRoleSet(roleID)))
}
