package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// Command is a host command requested on behalf of a subscriber.
type Command struct {
	// Line is the command line, e.g. "say hello". Its first field names the command.
	Line       string
	Subscriber domain.EntityID
	Signal     string
	// Args are the remaining delivery parameters.
	Args map[string]any
}

// CommandExecutor runs commands for the "cmd" action.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd Command) (string, error)
}

// CommandExecutorFunc adapts a function to CommandExecutor.
type CommandExecutorFunc func(ctx context.Context, cmd Command) (string, error)

// Execute calls f.
func (f CommandExecutorFunc) Execute(ctx context.Context, cmd Command) (string, error) {
	return f(ctx, cmd)
}

type cmdParams struct {
	Cmd  string         `mapstructure:"cmd"`
	Args map[string]any `mapstructure:",remain"`
}

// Cmd returns the action that executes the "cmd" parameter through exec.
func Cmd(exec CommandExecutor) registry.ActionFunc {
	return func(ctx context.Context, subscriber domain.EntityID, signal string, dc *registry.DispatchContext, params domain.Params) (bool, error) {
		var p cmdParams
		if err := mapstructure.Decode(map[string]any(params), &p); err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		line, err := SanitizeCommand(p.Cmd)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		if strings.TrimSpace(line) == "" {
			return false, fmt.Errorf("%w: missing %q", ErrInvalidParams, "cmd")
		}

		out, err := exec.Execute(ctx, Command{
			Line:       line,
			Subscriber: subscriber,
			Signal:     signal,
			Args:       p.Args,
		})
		if err != nil {
			return false, err
		}

		if dc != nil && dc.Logger != nil {
			dc.Logger.Debug("command executed", "cmd", line, "output", out)
		}
		return true, nil
	}
}
