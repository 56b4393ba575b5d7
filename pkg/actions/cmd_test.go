package actions_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/aware/internal/logging"
	"github.com/aretw0/aware/pkg/actions"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmd_ExecutesCommandParameter(t *testing.T) {
	var got actions.Command
	exec := actions.CommandExecutorFunc(func(ctx context.Context, cmd actions.Command) (string, error) {
		got = cmd
		return "ok", nil
	})

	fn := actions.Cmd(exec)
	dc := &registry.DispatchContext{Logger: logging.NewNop()}
	handled, err := fn(context.Background(), "guard", "sound:crying", dc, domain.Params{
		"cmd":    "say who is there?",
		"volume": "loud",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "say who is there?", got.Line)
	assert.Equal(t, domain.EntityID("guard"), got.Subscriber)
	assert.Equal(t, "sound:crying", got.Signal)
	assert.Equal(t, map[string]any{"volume": "loud"}, got.Args)
}

func TestCmd_InvalidParams(t *testing.T) {
	exec := actions.CommandExecutorFunc(func(ctx context.Context, cmd actions.Command) (string, error) {
		t.Fatal("executor must not run")
		return "", nil
	})
	fn := actions.Cmd(exec)

	_, err := fn(context.Background(), "guard", "alarm", &registry.DispatchContext{}, domain.Params{})
	assert.ErrorIs(t, err, actions.ErrInvalidParams)

	_, err = fn(context.Background(), "guard", "alarm", &registry.DispatchContext{}, domain.Params{"cmd": []int{1}})
	assert.ErrorIs(t, err, actions.ErrInvalidParams)

	// Nothing is left once control characters are stripped.
	_, err = fn(context.Background(), "guard", "alarm", &registry.DispatchContext{}, domain.Params{"cmd": "\x1b\x07"})
	assert.ErrorIs(t, err, actions.ErrInvalidParams)

	_, err = fn(context.Background(), "guard", "alarm", &registry.DispatchContext{}, domain.Params{"cmd": strings.Repeat("a", actions.DefaultMaxCommandSize+1)})
	assert.ErrorIs(t, err, actions.ErrCommandTooLarge)
}

func TestCmd_ExecutorFailure(t *testing.T) {
	boom := errors.New("boom")
	fn := actions.Cmd(actions.CommandExecutorFunc(func(ctx context.Context, cmd actions.Command) (string, error) {
		return "", boom
	}))

	handled, err := fn(context.Background(), "guard", "alarm", &registry.DispatchContext{}, domain.Params{"cmd": "look"})
	assert.False(t, handled)
	assert.ErrorIs(t, err, boom)
}

func TestRegister(t *testing.T) {
	reg := registry.NewRegistry()
	actions.Register(reg, nil, nil)
	assert.Empty(t, reg.Actions())

	exec := actions.CommandExecutorFunc(func(ctx context.Context, cmd actions.Command) (string, error) { return "", nil })
	actions.Register(reg, exec, nil)
	assert.Equal(t, []string{actions.CmdAction}, reg.Actions())
}
