package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalidCommand is returned for a command without a slash name, handler or description.
	ErrInvalidCommand = errors.New("telegram: invalid command")
	// ErrDuplicateCommand is returned when a name or alias is already taken.
	ErrDuplicateCommand = errors.New("telegram: duplicate command")
)

// Registry holds the bot's slash commands keyed by lowercase name.
type Registry struct {
	commands map[string]commands.Command
	aliases  map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		aliases:  make(map[string]string),
	}
}

func slashed(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && name[0] != '/' {
		name = "/" + name
	}
	return name
}

// RegisterCommand adds cmd under name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	err := r.register(name, cmd)
	if err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("err", err.Error()),
		)
	}
	return err
}

func (r *Registry) register(name string, cmd commands.Command) error {
	if r == nil || cmd.Handler == nil || cmd.Description == "" || !strings.HasPrefix(name, "/") || len(name) < 2 {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, name)
	}
	key := slashed(name)
	if r.taken(key) {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}
	var aliases []string
	for _, alias := range cmd.Aliases {
		a := slashed(alias)
		if a == "" || a == key || slices.Contains(aliases, a) {
			continue
		}
		if r.taken(a) {
			return fmt.Errorf("%w: alias %s of %s", ErrDuplicateCommand, a, key)
		}
		aliases = append(aliases, a)
	}
	cmd.Aliases = aliases
	r.commands[key] = cmd
	for _, a := range aliases {
		r.aliases[a] = key
	}
	return nil
}

func (r *Registry) taken(name string) bool {
	_, cmd := r.commands[name]
	_, alias := r.aliases[name]
	return cmd || alias
}

// ListCommands returns the commands sorted by name, without hidden ones when visibleOnly is set.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for name, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves message text, a bare name or an alias to the
// canonical command name.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name, ok := commands.Name(text)
	if !ok {
		name = slashed(text)
	}
	if key, ok := r.aliases[name]; ok {
		name = key
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// Commands returns the registered commands keyed by canonical name.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// InitBotCommands publishes the visible commands to the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
