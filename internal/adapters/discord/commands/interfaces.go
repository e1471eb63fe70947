package commands

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

type DiscordSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	UpdateGameStatus(idle int, name string) error
	HeartbeatLatency() time.Duration
}

type CommandSession interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// GuildState is the cached gateway state, satisfied by *discordgo.State.
type GuildState interface {
	Guild(guildID string) (*discordgo.Guild, error)
	VoiceState(guildID, userID string) (*discordgo.VoiceState, error)
}

// PermissionResolver computes a member's effective permissions in a channel.
type PermissionResolver func(userID, channelID string) (int64, error)
