package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

type DuplicatePolicy string

const (
	DuplicateReject    DuplicatePolicy = "reject"
	DuplicateOverwrite DuplicatePolicy = "overwrite"
)

var (
	ErrDuplicateCommand = errors.New("duplicate command")

	namePattern = regexp.MustCompile(`^[-_a-z0-9]{1,32}$`)
	adminPerms  = int64(discordgo.PermissionAdministrator)
)

const maxDescriptionLength = 100

// Registry is the immutable name to command table built at startup.
type Registry struct {
	commands map[string]Command
	skipped  int
}

// LoadRegistry validates defs and indexes them by name. Malformed entries
// are skipped with a warning. A repeated name fails the load under
// DuplicateReject and replaces the earlier entry under DuplicateOverwrite.
func LoadRegistry(defs []Command, policy DuplicatePolicy) (*Registry, error) {
	r := &Registry{commands: make(map[string]Command, len(defs))}

	for _, def := range defs {
		if err := validateCommand(def); err != nil {
			slog.Warn("Skipping malformed command", "name", def.Name, "error", err)
			r.skipped++
			continue
		}

		if _, exists := r.commands[def.Name]; exists {
			if policy != DuplicateOverwrite {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateCommand, def.Name)
			}
			slog.Warn("Overwriting duplicate command", "name", def.Name)
		}

		r.commands[def.Name] = def
	}

	slog.Info("Command registry loaded", "commands", len(r.commands), "skipped", r.skipped)
	return r, nil
}

func validateCommand(cmd Command) error {
	if !namePattern.MatchString(cmd.Name) {
		return fmt.Errorf("invalid name %q", cmd.Name)
	}
	if cmd.Description == "" || utf8.RuneCountInString(cmd.Description) > maxDescriptionLength {
		return fmt.Errorf("description must be 1-%d characters", maxDescriptionLength)
	}
	if cmd.Run == nil {
		return errors.New("missing handler")
	}
	if cmd.Level < LevelEveryone || cmd.Level > LevelAdmin {
		return fmt.Errorf("unknown permission level %d", int(cmd.Level))
	}
	for _, opt := range cmd.Options {
		if opt == nil || !namePattern.MatchString(opt.Name) || opt.Description == "" ||
			utf8.RuneCountInString(opt.Description) > maxDescriptionLength {
			return errors.New("malformed option")
		}
	}
	return nil
}

func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns the commands sorted by name.
func (r *Registry) All() []Command {
	all := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		all = append(all, cmd)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

func (r *Registry) Len() int {
	return len(r.commands)
}

// Skipped is the number of malformed entries left out at load time.
func (r *Registry) Skipped() int {
	return r.skipped
}

// ApplicationCommands builds the slash command definitions. Admin commands
// are hidden from members without Administrator by default.
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	all := r.All()
	out := make([]*discordgo.ApplicationCommand, 0, len(all))

	for _, cmd := range all {
		app := &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		}
		if cmd.Level == LevelAdmin {
			app.DefaultMemberPermissions = &adminPerms
		}
		out = append(out, app)
	}

	return out
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func roleOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func RegisterCommands(session CommandSession, commands []*discordgo.ApplicationCommand, appID, guildID string) []*discordgo.ApplicationCommand {
	registered := make([]*discordgo.ApplicationCommand, 0, len(commands))

	for _, cmd := range commands {
		result, err := session.ApplicationCommandCreate(appID, guildID, cmd)
		if err != nil {
			slog.Error("Cannot create command", "name", cmd.Name, "error", err)
			continue
		}
		registered = append(registered, result)
		slog.Info("Registered command", "name", cmd.Name, "guild", guildID)
	}

	return registered
}

func CleanupCommands(session CommandSession, commands []*discordgo.ApplicationCommand, appID, guildID string) {
	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		if err := session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			slog.Error("Cannot delete command", "name", cmd.Name, "error", err)
		}
	}
}
