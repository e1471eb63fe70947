package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"guild-jukebox/internal/adapters/discord/formatting"
	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/fault"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 30 * time.Second
	logTimeout       = 3 * time.Second
	presenceInterval = 20 * time.Second
	maxCooldownUsers = 10000
)

type SettingsProvider interface {
	GetSettings(ctx context.Context, guildID string) (domain.GuildSettings, error)
	LogCommand(ctx context.Context, entry domain.CommandLog) error
}

type RouterOptions struct {
	Prefix      string
	Timeout     time.Duration
	Cooldown    time.Duration
	Settings    SettingsProvider
	State       GuildState
	Permissions PermissionResolver
}

// Router turns gateway events into command invocations. Every event is
// handled independently: a failing command never affects the next one.
type Router struct {
	registry *Registry
	reporter *fault.Reporter
	opts     RouterOptions

	cooldowns *cooldowns
	presence  *rate.Limiter
}

func NewRouter(registry *Registry, reporter *fault.Reporter, opts RouterOptions) *Router {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if reporter == nil {
		reporter = fault.NewReporter(nil)
	}

	slog.Info("Router initialized", "commands", registry.Len(), "prefix", opts.Prefix)
	return &Router{
		registry:  registry,
		reporter:  reporter,
		opts:      opts,
		cooldowns: newCooldowns(opts.Cooldown),
		presence:  rate.NewLimiter(rate.Every(presenceInterval), 1),
	}
}

func (r *Router) HandleInteraction(s DiscordSession, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	defer r.reporter.Recover(i.GuildID, "router")

	r.dispatch(newInteractionContext(s, i))
}

func (r *Router) HandleMessage(s DiscordSession, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" || r.opts.Prefix == "" {
		return
	}
	if !strings.HasPrefix(m.Content, r.opts.Prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, r.opts.Prefix))
	if len(fields) == 0 {
		return
	}
	defer r.reporter.Recover(m.GuildID, "router")

	c := newMessageContext(s, m.Message, strings.ToLower(fields[0]), fields[1:])
	if r.opts.Permissions != nil {
		perms, err := r.opts.Permissions(c.UserID, c.ChannelID)
		if err != nil {
			slog.Warn("Failed to resolve member permissions", "user_id", c.UserID, "error", err)
		}
		c.Permissions = perms
	}

	r.dispatch(c)
}

func (r *Router) HandleInteractionFunc() func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		r.HandleInteraction(s, i)
	}
}

func (r *Router) HandleMessageFunc() func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		r.HandleMessage(s, m)
	}
}

func (r *Router) dispatch(c *Context) {
	start := time.Now()
	c.state = r.opts.State

	slog.Info("Command received", "command", c.Command, "source", c.Source, "guild_id", c.GuildID, "user_id", c.UserID)

	if err := c.Defer(); err != nil {
		slog.Warn("Failed to acknowledge command", "command", c.Command, "error", err)
	}
	r.updatePresence(c)

	cmd, ok := r.registry.Get(c.Command)
	if !ok {
		r.reject(c, start, domain.CommandUnknown, formatting.MsgUnknownCommand)
		return
	}
	if c.GuildID == "" {
		r.reject(c, start, domain.CommandDenied, formatting.MsgGuildOnly)
		return
	}
	c.bindArgs(cmd.Options)

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
	defer cancel()

	if !r.authorize(ctx, c, cmd.Level) {
		r.reject(c, start, domain.CommandDenied, formatting.MsgPermissionDenied)
		return
	}
	if !r.cooldowns.allow(c.UserID) {
		r.reject(c, start, domain.CommandThrottle, formatting.MsgCooldown)
		return
	}

	err := fault.Catch(func() error { return cmd.Run(ctx, c) })
	if err == nil {
		r.finish(c, start, domain.CommandSuccess)
		return
	}

	msg := formatting.MsgGenericError
	var ue *UserError
	if errors.As(err, &ue) {
		msg = ue.Message
		slog.Info("Command rejected input", "command", c.Command, "guild_id", c.GuildID, "error", err)
	} else {
		r.reporter.Report(c.GuildID, "command:"+c.Command, err)
	}

	_ = c.Reply(formatting.Error(msg))
	r.finish(c, start, domain.CommandFailure)
}

func (r *Router) reject(c *Context, start time.Time, status domain.CommandStatus, msg string) {
	slog.Info("Command not executed", "command", c.Command, "status", status, "guild_id", c.GuildID, "user_id", c.UserID)
	_ = c.Reply(formatting.Error(msg))
	r.finish(c, start, status)
}

// authorize reports whether the invoker reaches the required level.
// Administrators pass everything; Manage Channels or the guild's DJ role
// grants DJ level.
func (r *Router) authorize(ctx context.Context, c *Context, required Level) bool {
	if required == LevelEveryone {
		return true
	}
	if c.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if required == LevelAdmin {
		return false
	}
	if c.Permissions&discordgo.PermissionManageChannels != 0 {
		return true
	}
	if r.opts.Settings == nil {
		return false
	}

	settings, err := r.opts.Settings.GetSettings(ctx, c.GuildID)
	if err != nil {
		slog.Warn("Failed to load guild settings", "guild_id", c.GuildID, "error", err)
		return false
	}
	return settings.DJRoleID != "" && c.HasRole(settings.DJRoleID)
}

func (r *Router) finish(c *Context, start time.Time, status domain.CommandStatus) {
	elapsed := time.Since(start)

	label := c.Command
	if status == domain.CommandUnknown {
		label = "unknown"
	} else {
		metrics.CommandDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	}
	metrics.CommandsHandled.WithLabelValues(label, c.Source, string(status)).Inc()

	if r.opts.Settings == nil || c.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
	defer cancel()

	err := r.opts.Settings.LogCommand(ctx, domain.CommandLog{
		GuildID:   c.GuildID,
		ChannelID: c.ChannelID,
		UserID:    c.UserID,
		Command:   label,
		Status:    status,
		Duration:  elapsed,
		CreatedAt: start,
	})
	if err != nil {
		slog.Warn("Failed to log command", "command", label, "error", err)
	}
}

// updatePresence refreshes the bot's status line. It is rate limited and
// failures are ignored.
func (r *Router) updatePresence(c *Context) {
	if !r.presence.Allow() {
		return
	}
	if err := c.Session.UpdateGameStatus(0, formatting.MsgPresence(c.GuildName())); err != nil {
		slog.Debug("Failed to update presence", "error", err)
	}
}

type cooldowns struct {
	every time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newCooldowns(every time.Duration) *cooldowns {
	return &cooldowns{every: every, limiters: make(map[string]*rate.Limiter)}
}

func (c *cooldowns) allow(userID string) bool {
	if c.every <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lim, ok := c.limiters[userID]
	if !ok {
		if len(c.limiters) >= maxCooldownUsers {
			clear(c.limiters)
		}
		lim = rate.NewLimiter(rate.Every(c.every), 1)
		c.limiters[userID] = lim
	}
	return lim.Allow()
}
