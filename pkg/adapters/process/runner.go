package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/aretw0/aware/pkg/actions"
)

// ErrCommandNotAllowed is returned for command names missing from the allow-list.
var ErrCommandNotAllowed = errors.New("command not registered")

// Runner executes "cmd" actions as local processes.
// Only allow-listed commands run: the first field of the command line names a
// registered command, never a binary.
type Runner struct {
	mu       sync.RWMutex
	registry map[string]RegisteredProcess
	baseDir  string
}

var _ actions.CommandExecutor = (*Runner)(nil)

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(commands map[string]CommandConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			r.registry[name] = RegisteredProcess{Command: c.Command, Args: c.Args, Env: c.Environment}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Execute runs the allow-listed command named by the first field of cmd.Line.
//
// Arguments never reach the process as flags. They are passed as environment
// variables: AWARE_SUBSCRIBER, AWARE_SIGNAL, AWARE_ARGS (the rest of the
// command line) and AWARE_ARG_<KEY> for every delivery parameter.
func (r *Runner) Execute(ctx context.Context, cmd actions.Command) (string, error) {
	fields := strings.Fields(cmd.Line)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty command line", actions.ErrInvalidParams)
	}

	r.mu.RLock()
	proc, ok := r.registry[fields[0]]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCommandNotAllowed, fields[0])
	}

	c := exec.CommandContext(ctx, proc.Command, proc.Args...)
	c.Dir = r.baseDir

	env := []string{
		"AWARE_SUBSCRIBER=" + string(cmd.Subscriber),
		"AWARE_SIGNAL=" + cmd.Signal,
		"AWARE_ARGS=" + strings.Join(fields[1:], " "),
	}
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range cmd.Args {
		env = append(env, fmt.Sprintf("AWARE_ARG_%s=%s", strings.ToUpper(k), envValue(v)))
	}
	c.Env = append(c.Environ(), env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		return "", fmt.Errorf("execution of %s failed: %w. Stderr: %s", fields[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// envValue renders primitives with fmt and everything else as JSON.
func envValue(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
		return fmt.Sprintf("%v", v)
	}
}
