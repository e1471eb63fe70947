package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type Level int

const (
	LevelEveryone Level = iota
	LevelDJ
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelEveryone:
		return "everyone"
	case LevelDJ:
		return "dj"
	case LevelAdmin:
		return "admin"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

type HandlerFunc func(ctx context.Context, c *Context) error

// Command is a single entry of the command manifest.
type Command struct {
	Name        string
	Description string
	Category    string
	Level       Level
	Options     []*discordgo.ApplicationCommandOption
	Run         HandlerFunc
}

// UserError is a failure whose Message is safe to show to the invoking
// user. Any other error returned by a handler is shown generically.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func Userf(format string, a ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, a...)}
}

func UserErr(message string, err error) *UserError {
	return &UserError{Message: message, Err: err}
}
