package discord

import (
	"fmt"
	"log/slog"

	"guild-jukebox/internal/adapters/discord/formatting"
	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/config"
	"guild-jukebox/internal/core/ports"

	"github.com/bwmarrin/discordgo"
)

var _ ports.ErrorNotifier = (*Adapter)(nil)

type DiscordSession interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter posts operational messages to named text channels.
type Adapter struct {
	session      DiscordSession
	errorChannel string
	cache        *channelCache
}

func NewAdapter(session DiscordSession, cfg *config.Config) *Adapter {
	return &Adapter{
		session:      session,
		errorChannel: cfg.ErrorChannel,
		cache:        newChannelCache(),
	}
}

// NotifyError reports a fault to the guild's ops channel. It is a no-op
// when no ops channel is configured.
func (a *Adapter) NotifyError(guildID, source, message string) error {
	if a.errorChannel == "" || guildID == "" {
		return nil
	}
	return a.SendEmbed(guildID, a.errorChannel, formatting.Error(formatting.MsgOpsFault(source, message)))
}

func (a *Adapter) SendEmbed(guildID, channelName string, embed *discordgo.MessageEmbed) error {
	channelID, err := a.resolveChannelID(guildID, channelName)
	if err != nil {
		slog.Error("Failed to get channel ID", "guild_id", guildID, "channel_name", channelName, "error", err)
		return err
	}

	if _, err := a.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		slog.Error("Failed to send message", "channel_id", channelID, "error", err)
		a.cache.Invalidate(guildID, channelName)
		metrics.DiscordMessagesSent.WithLabelValues("ops", "failure").Inc()
		return err
	}

	metrics.DiscordMessagesSent.WithLabelValues("ops", "success").Inc()
	return nil
}

func (a *Adapter) resolveChannelID(guildID, channelName string) (string, error) {
	if id, ok := a.cache.Get(guildID, channelName); ok {
		return id, nil
	}

	id, err := a.fetchChannelID(guildID, channelName)
	if err != nil {
		return "", err
	}

	a.cache.Set(guildID, channelName, id)
	return id, nil
}

func (a *Adapter) fetchChannelID(guildID, channelName string) (string, error) {
	channels, err := a.session.GuildChannels(guildID)
	if err != nil {
		slog.Error("Failed to fetch guild channels", "guild_id", guildID, "error", err)
		return "", err
	}

	for _, ch := range channels {
		if ch.Name == channelName && ch.Type == discordgo.ChannelTypeGuildText {
			return ch.ID, nil
		}
	}

	return "", fmt.Errorf("channel %s not found", channelName)
}
