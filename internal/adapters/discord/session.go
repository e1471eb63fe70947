package discord

import (
	"fmt"
	"log/slog"

	"guild-jukebox/internal/config"

	"github.com/bwmarrin/discordgo"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsMessageContent

func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	discord, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		slog.Error("Failed to create discord session", "error", err)
		return nil, err
	}

	discord.Identify.Intents = intents
	discord.LogLevel = discordgo.LogWarning
	discordgo.Logger = slogBridge

	return discord, nil
}

// slogBridge routes discordgo's internal logging into slog.
func slogBridge(msgL, caller int, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)

	switch msgL {
	case discordgo.LogError:
		slog.Error(msg, "component", "discordgo")
	case discordgo.LogWarning:
		slog.Warn(msg, "component", "discordgo")
	case discordgo.LogInformational:
		slog.Info(msg, "component", "discordgo")
	default:
		slog.Debug(msg, "component", "discordgo")
	}
}
