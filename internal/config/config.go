package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Token             string        `env:"DISCORD_TOKEN"`
	AppID             string        `env:"DISCORD_APP_ID"`
	GuildID           string        `env:"DISCORD_GUILD_ID"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	RedisURL          string        `env:"REDIS_URL"`
	CommandPrefix     string        `env:"COMMAND_PREFIX" envDefault:"!"`
	FFmpegPath        string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"5m"`
	CommandTimeout    time.Duration `env:"COMMAND_TIMEOUT" envDefault:"30s"`
	CommandCooldown   time.Duration `env:"COMMAND_COOLDOWN" envDefault:"2s"`
	ResolveCacheTTL   time.Duration `env:"RESOLVE_CACHE_TTL" envDefault:"30m"`
	DuplicateCommands string        `env:"DUPLICATE_COMMANDS" envDefault:"reject"`
	ErrorChannel      string        `env:"ERROR_CHANNEL"`
	MetricsAddr       string        `env:"METRICS_ADDR" envDefault:":2112"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"text"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if token := readSecret("discord_token"); token != "" {
		cfg.Token = token
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is not set (via secret or env var)")
	}

	if dbURL := readSecret("database_url"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set (via secret or env var)")
	}

	if redisURL := readSecret("redis_url"); redisURL != "" {
		cfg.RedisURL = redisURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var secretsDir = "/run/secrets/"

func readSecret(name string) string {
	data, err := os.ReadFile(secretsDir + name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
