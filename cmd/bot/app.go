package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"guild-jukebox/internal/adapters/audio"
	"guild-jukebox/internal/adapters/cache/rediscache"
	"guild-jukebox/internal/adapters/discord"
	"guild-jukebox/internal/adapters/discord/commands"
	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/adapters/resolver"
	"guild-jukebox/internal/adapters/storage/postgres"
	"guild-jukebox/internal/config"
	"guild-jukebox/internal/core/ports"
	"guild-jukebox/internal/core/services"
	"guild-jukebox/internal/core/services/playback"
	"guild-jukebox/internal/fault"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EventSource is where gateway handlers are attached, satisfied by
// *discordgo.Session.
type EventSource interface {
	AddHandler(handler interface{}) func()
}

type App struct {
	config             *config.Config
	discord            *discordgo.Session
	store              ports.Repository
	cache              io.Closer
	sessions           *playback.Manager
	registry           *commands.Registry
	router             *commands.Router
	reporter           *fault.Reporter
	metricsServer      *http.Server
	registeredCommands []*discordgo.ApplicationCommand
}

// NewApp wires every component. Configuration and the command manifest are
// validated before any connection is opened or listener attached.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	handler := &commands.BotHandler{Prefix: cfg.CommandPrefix}
	registry, err := commands.LoadRegistry(commands.Manifest(handler), commands.DuplicatePolicy(cfg.DuplicateCommands))
	if err != nil {
		return nil, fmt.Errorf("load commands: %w", err)
	}
	handler.Commands = registry
	metrics.RegisteredCommands.WithLabelValues("loaded").Set(float64(registry.Len()))
	metrics.RegisteredCommands.WithLabelValues("skipped").Set(float64(registry.Skipped()))

	store, err := postgres.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	dg, err := discord.NewSession(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	app := &App{
		config:   cfg,
		discord:  dg,
		store:    store,
		registry: registry,
		reporter: fault.NewReporter(discord.NewAdapter(dg, cfg)),
	}

	trackResolver := app.newResolver(ctx)
	settings := services.NewSettingsService(store)

	app.sessions = playback.NewManager(
		discord.NewVoiceTransport(dg),
		audio.NewFFmpegStreamer(cfg.FFmpegPath),
		store,
		cfg.IdleTimeout,
		app.reporter,
	)

	handler.Playback = app.sessions
	handler.Resolver = trackResolver
	handler.Settings = settings

	app.router = commands.NewRouter(registry, app.reporter, commands.RouterOptions{
		Prefix:   cfg.CommandPrefix,
		Timeout:  cfg.CommandTimeout,
		Cooldown: cfg.CommandCooldown,
		Settings: settings,
		State:    dg.State,
		Permissions: func(userID, channelID string) (int64, error) {
			return dg.State.UserChannelPermissions(userID, channelID)
		},
	})

	app.attachHandlers(dg)
	return app, nil
}

// newResolver builds the resolver chain, fronted by the Redis cache when
// one is configured and reachable.
func (a *App) newResolver(ctx context.Context) ports.TrackResolver {
	httpClient := resolver.NewHTTPClient()
	chain := resolver.NewChain(
		resolver.NewYouTube(httpClient),
		resolver.NewDirect(httpClient),
	)

	if a.config.RedisURL == "" {
		return chain
	}

	rdb, err := rediscache.Connect(ctx, a.config.RedisURL)
	if err != nil {
		slog.Warn("Resolve cache unavailable, continuing without it", "error", err)
		return chain
	}

	a.cache = rdb
	slog.Info("Resolve cache enabled", "ttl", a.config.ResolveCacheTTL)
	return rediscache.NewResolveCache(rdb, chain, a.config.ResolveCacheTTL)
}

func (a *App) attachHandlers(src EventSource) {
	src.AddHandler(a.onReady)
	src.AddHandler(a.router.HandleInteractionFunc())
	src.AddHandler(a.router.HandleMessageFunc())
	src.AddHandler(a.onVoiceStateUpdate)
}

func (a *App) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Bot is ready", "user", r.User.Username, "guilds", len(r.Guilds))
}

func (a *App) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	defer a.reporter.Recover(v.GuildID, "voice-state")

	if s.State == nil || s.State.User == nil {
		return
	}
	discord.HandleVoiceStateUpdate(s.State.User.ID, v, a.sessions)
}

func (a *App) Run() error {
	if err := a.discord.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	a.registeredCommands = commands.RegisterCommands(
		a.discord, a.registry.ApplicationCommands(), a.config.AppID, a.config.GuildID,
	)
	a.startMetricsServer()

	slog.Info("Jukebox is online", "commands", len(a.registeredCommands))
	return nil
}

func (a *App) startMetricsServer() {
	if a.config.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	a.metricsServer = &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serve := func() {
		slog.Info("Metrics server listening", "addr", a.config.MetricsAddr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}

	if a.reporter != nil {
		a.reporter.Go("metrics-server", serve)
		return
	}
	go serve()
}

// Shutdown leaves every voice channel before closing the gateway and
// storage connections.
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down...")

	var errs []error

	if a.sessions != nil {
		n := a.sessions.DestroyAll()
		slog.Info("Destroyed playback sessions", "count", n)
	}

	if a.discord != nil {
		commands.CleanupCommands(a.discord, a.registeredCommands, a.config.AppID, a.config.GuildID)
		if err := a.discord.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close discord: %w", err))
		}
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics server: %w", err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}

	if a.store != nil {
		a.store.Close()
	}

	return errors.Join(errs...)
}
