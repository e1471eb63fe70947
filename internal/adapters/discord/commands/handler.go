package commands

import (
	"context"

	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/ports"
	"guild-jukebox/internal/core/services/playback"

	"github.com/bwmarrin/discordgo"
)

type Playback interface {
	Play(ctx context.Context, guildID, channelID string, track domain.Track) (*playback.Session, int, error)
	Pause(guildID string) error
	Resume(guildID string) error
	Skip(guildID string) (domain.Track, error)
	Stop(guildID string) error
	Snapshot(guildID string) (playback.Snapshot, error)
}

type Settings interface {
	SetDJRole(ctx context.Context, guildID, roleID string) error
	RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.PlayRecord, error)
}

// BotHandler holds the dependencies shared by the built-in commands.
// Commands is set once the registry built from Manifest has loaded.
type BotHandler struct {
	Playback Playback
	Resolver ports.TrackResolver
	Settings Settings
	Prefix   string
	Commands *Registry
}

func Manifest(h *BotHandler) []Command {
	return []Command{
		{
			Name:        "ping",
			Description: "Check that the bot is responsive",
			Category:    "general",
			Run:         h.Ping,
		},
		{
			Name:        "help",
			Description: "List the available commands",
			Category:    "general",
			Run:         h.Help,
		},
		{
			Name:        "play",
			Description: "Play a link or add it to the queue",
			Category:    "music",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("query", "YouTube link or direct link to an audio file", true),
			},
			Run: h.Play,
		},
		{
			Name:        "queue",
			Description: "Show the current track and the queue",
			Category:    "music",
			Run:         h.Queue,
		},
		{
			Name:        "nowplaying",
			Description: "Show the current track",
			Category:    "music",
			Run:         h.NowPlaying,
		},
		{
			Name:        "history",
			Description: "Show recently played tracks",
			Category:    "music",
			Run:         h.History,
		},
		{
			Name:        "pause",
			Description: "Pause playback",
			Category:    "music",
			Level:       LevelDJ,
			Run:         h.Pause,
		},
		{
			Name:        "resume",
			Description: "Resume paused playback",
			Category:    "music",
			Level:       LevelDJ,
			Run:         h.Resume,
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
			Category:    "music",
			Level:       LevelDJ,
			Run:         h.Skip,
		},
		{
			Name:        "stop",
			Description: "Stop playback, clear the queue and leave the channel",
			Category:    "music",
			Level:       LevelDJ,
			Run:         h.Stop,
		},
		{
			Name:        "set-dj-role",
			Description: "Set the role allowed to control playback",
			Category:    "settings",
			Level:       LevelAdmin,
			Options: []*discordgo.ApplicationCommandOption{
				roleOption("role", "DJ role, leave empty to clear", false),
			},
			Run: h.SetDJRole,
		},
	}
}
