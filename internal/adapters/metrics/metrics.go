package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_commands_total",
		Help: "Total number of dispatched commands by outcome",
	}, []string{"command", "source", "status"})

	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jukebox_command_duration_seconds",
		Help:    "Duration of command handler execution",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	RegisteredCommands = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jukebox_registered_commands",
		Help: "Number of command definitions by load result",
	}, []string{"status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jukebox_active_sessions",
		Help: "Number of live per-guild audio sessions",
	})

	SessionsDestroyed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_sessions_destroyed_total",
		Help: "Total number of torn down audio sessions by reason",
	}, []string{"reason"})

	TracksPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_tracks_total",
		Help: "Total number of tracks that finished streaming by outcome",
	}, []string{"status"})

	ResolverRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_resolver_requests_total",
		Help: "Total number of track resolutions",
	}, []string{"resolver", "status"})

	ResolverRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jukebox_resolver_http_duration_seconds",
		Help:    "Duration of outbound HTTP requests made while resolving tracks",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	ResolveCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_resolve_cache_total",
		Help: "Resolve cache lookups by result",
	}, []string{"result"})

	Faults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_faults_total",
		Help: "Total number of observed faults (errors and recovered panics)",
	}, []string{"source", "kind"})

	DiscordMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discord_messages_sent_total",
		Help: "Total number of Discord messages sent",
	}, []string{"channel_type", "status"})
)
