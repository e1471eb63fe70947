package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation constants define acceptable bounds for configuration values
const (
	// Token validation
	minTokenLength = 50 // Discord tokens are typically 50+ characters

	// Snowflake validation
	minSnowflakeLength = 17
	maxSnowflakeLength = 20

	// CommandTimeout validation
	minCommandTimeout = 3 * time.Second // Discord interaction token deadline
	maxCommandTimeout = 15 * time.Minute

	// IdleTimeout validation
	minIdleTimeout = 10 * time.Second

	// Prefix validation
	maxPrefixLength = 5

	// Channel name validation
	maxChannelNameLength = 100 // Discord limit
)

const (
	DuplicateReject    = "reject"
	DuplicateOverwrite = "overwrite"
)

// Validate checks if the configuration values are valid and within acceptable ranges.
// It returns all validation errors at once using errors.Join.
//
// Required fields:
//   - Token: at least 50 characters
//   - AppID, GuildID: Discord snowflakes
//   - DatabaseURL: non-empty
//
// Returns nil if all validations pass, otherwise a combined error
// containing every validation failure.
func (c *Config) Validate() error {
	var errs []error

	if err := c.validateToken(); err != nil {
		errs = append(errs, err)
	}

	if err := validateSnowflake("DISCORD_APP_ID", c.AppID); err != nil {
		errs = append(errs, err)
	}

	if err := validateSnowflake("DISCORD_GUILD_ID", c.GuildID); err != nil {
		errs = append(errs, err)
	}

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required but not set"))
	}

	if err := c.validateTimeouts(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validatePrefix(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateDuplicatePolicy(); err != nil {
		errs = append(errs, err)
	}

	if len(c.ErrorChannel) > maxChannelNameLength {
		errs = append(errs, fmt.Errorf(
			"ERROR_CHANNEL must be at most %d characters (Discord limit), got %d",
			maxChannelNameLength, len(c.ErrorChannel),
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %w", errors.Join(errs...))
	}

	return nil
}

// validateToken ensures the Discord token is present and has valid length
func (c *Config) validateToken() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required but not set")
	}

	if len(c.Token) < minTokenLength {
		return fmt.Errorf(
			"DISCORD_TOKEN appears invalid (too short: %d chars, expected %d+)",
			len(c.Token), minTokenLength,
		)
	}

	return nil
}

func validateSnowflake(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required but not set", fieldName)
	}

	if len(value) < minSnowflakeLength || len(value) > maxSnowflakeLength {
		return fmt.Errorf("%s must be a Discord ID of %d-%d digits, got %q",
			fieldName, minSnowflakeLength, maxSnowflakeLength, value)
	}

	for _, r := range value {
		if r < '0' || r > '9' {
			return fmt.Errorf("%s must contain only digits, got %q", fieldName, value)
		}
	}

	return nil
}

func (c *Config) validateTimeouts() error {
	var errs []error

	if c.CommandTimeout < minCommandTimeout || c.CommandTimeout > maxCommandTimeout {
		errs = append(errs, fmt.Errorf(
			"COMMAND_TIMEOUT must be between %v and %v, got %v",
			minCommandTimeout, maxCommandTimeout, c.CommandTimeout,
		))
	}

	if c.IdleTimeout < minIdleTimeout {
		errs = append(errs, fmt.Errorf(
			"IDLE_TIMEOUT must be at least %v, got %v",
			minIdleTimeout, c.IdleTimeout,
		))
	}

	if c.CommandCooldown < 0 {
		errs = append(errs, fmt.Errorf("COMMAND_COOLDOWN cannot be negative, got %v", c.CommandCooldown))
	}

	if c.ResolveCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("RESOLVE_CACHE_TTL cannot be negative, got %v", c.ResolveCacheTTL))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (c *Config) validatePrefix() error {
	if c.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX cannot be empty")
	}

	if len(c.CommandPrefix) > maxPrefixLength || strings.ContainsAny(c.CommandPrefix, " \t\n") {
		return fmt.Errorf("COMMAND_PREFIX must be 1-%d characters without whitespace, got %q",
			maxPrefixLength, c.CommandPrefix)
	}

	return nil
}

func (c *Config) validateDuplicatePolicy() error {
	switch c.DuplicateCommands {
	case DuplicateReject, DuplicateOverwrite:
		return nil
	default:
		return fmt.Errorf("DUPLICATE_COMMANDS must be %q or %q, got %q",
			DuplicateReject, DuplicateOverwrite, c.DuplicateCommands)
	}
}
