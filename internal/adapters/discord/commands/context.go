package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"guild-jukebox/internal/adapters/metrics"

	"github.com/bwmarrin/discordgo"
)

const (
	SourceSlash = "slash"
	SourceText  = "text"
)

// Context describes one command invocation, whether it arrived as a slash
// interaction or as a prefixed text message.
type Context struct {
	Session     DiscordSession
	Interaction *discordgo.Interaction
	Message     *discordgo.Message

	Command     string
	Source      string
	GuildID     string
	ChannelID   string
	UserID      string
	Username    string
	Roles       []string
	Permissions int64
	Args        []string

	state    GuildState
	options  map[string]string
	deferred bool
}

func newInteractionContext(s DiscordSession, i *discordgo.InteractionCreate) *Context {
	data := i.ApplicationCommandData()

	c := &Context{
		Session:     s,
		Interaction: i.Interaction,
		Command:     data.Name,
		Source:      SourceSlash,
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		options:     make(map[string]string, len(data.Options)),
	}

	switch {
	case i.Member != nil:
		c.Permissions = i.Member.Permissions
		c.Roles = i.Member.Roles
		if i.Member.User != nil {
			c.UserID = i.Member.User.ID
			c.Username = i.Member.User.Username
		}
	case i.User != nil:
		c.UserID = i.User.ID
		c.Username = i.User.Username
	}

	for _, opt := range data.Options {
		if v, ok := opt.Value.(string); ok {
			c.options[opt.Name] = v
		}
	}

	return c
}

func newMessageContext(s DiscordSession, m *discordgo.Message, name string, args []string) *Context {
	c := &Context{
		Session:   s,
		Message:   m,
		Command:   name,
		Source:    SourceText,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Args:      args,
		options:   make(map[string]string),
	}
	if m.Author != nil {
		c.UserID = m.Author.ID
		c.Username = m.Author.Username
	}
	if m.Member != nil {
		c.Roles = m.Member.Roles
	}
	return c
}

// bindArgs maps positional text arguments onto the command's declared
// options. The last option takes the remainder of the line.
func (c *Context) bindArgs(opts []*discordgo.ApplicationCommandOption) {
	if c.Source != SourceText {
		return
	}

	for i, opt := range opts {
		if i >= len(c.Args) {
			return
		}

		value := c.Args[i]
		if i == len(opts)-1 {
			value = strings.Join(c.Args[i:], " ")
		}
		if opt.Type == discordgo.ApplicationCommandOptionRole {
			value = strings.TrimSuffix(strings.TrimPrefix(value, "<@&"), ">")
		}
		c.options[opt.Name] = value
	}
}

// Option returns the named option's string value, or "" when it was not given.
func (c *Context) Option(name string) string {
	return strings.TrimSpace(c.options[name])
}

func (c *Context) HasRole(roleID string) bool {
	for _, r := range c.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// VoiceChannelID returns the voice channel the invoking user is connected
// to, or "" when they are not in one.
func (c *Context) VoiceChannelID() string {
	if c.state == nil {
		return ""
	}
	vs, err := c.state.VoiceState(c.GuildID, c.UserID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

func (c *Context) GuildName() string {
	if c.state == nil {
		return ""
	}
	g, err := c.state.Guild(c.GuildID)
	if err != nil || g == nil {
		return ""
	}
	return g.Name
}

// Defer acknowledges the invocation before it is resolved. Interactions get
// a deferred response, text commands a typing indicator.
func (c *Context) Defer() error {
	if c.Interaction != nil {
		err := c.Session.InteractionRespond(c.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		})
		if err != nil {
			return fmt.Errorf("defer interaction: %w", err)
		}
		c.deferred = true
		return nil
	}
	return c.Session.ChannelTyping(c.ChannelID)
}

func (c *Context) Reply(embed *discordgo.MessageEmbed, files ...*discordgo.File) error {
	err := c.send(embed, files)

	status := "success"
	if err != nil {
		status = "failure"
		slog.Error("Failed to send reply", "command", c.Command, "guild_id", c.GuildID, "error", err)
	}
	metrics.DiscordMessagesSent.WithLabelValues("reply", status).Inc()
	return err
}

func (c *Context) send(embed *discordgo.MessageEmbed, files []*discordgo.File) error {
	embeds := []*discordgo.MessageEmbed{embed}

	switch {
	case c.Interaction != nil && c.deferred:
		_, err := c.Session.InteractionResponseEdit(c.Interaction, &discordgo.WebhookEdit{
			Embeds: &embeds,
			Files:  files,
		})
		return err
	case c.Interaction != nil:
		return c.Session.InteractionRespond(c.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: embeds,
				Files:  files,
			},
		})
	default:
		msg := &discordgo.MessageSend{Embeds: embeds, Files: files}
		if c.Message != nil {
			msg.Reference = c.Message.Reference()
		}
		_, err := c.Session.ChannelMessageSendComplex(c.ChannelID, msg)
		return err
	}
}
