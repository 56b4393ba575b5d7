package actions

import (
	"errors"

	"github.com/aretw0/aware/pkg/ports"
	"github.com/aretw0/aware/pkg/registry"
)

const (
	// CmdAction is the name of the command action. It is the default action.
	CmdAction = "cmd"
	// MoveAction is the name of the movement action.
	MoveAction = "move"
)

// ErrInvalidParams is returned when an action's parameters cannot be decoded.
var ErrInvalidParams = errors.New("invalid action parameters")

// Register installs the bundled actions whose collaborators are available.
// A nil executor skips "cmd"; a nil mover skips "move".
func Register(reg *registry.Registry, exec CommandExecutor, mover ports.Mover) {
	if exec != nil {
		reg.Register(CmdAction, Cmd(exec))
	}
	if mover != nil {
		reg.Register(MoveAction, Move(mover))
	}
}
