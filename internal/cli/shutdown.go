package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownError is the cancellation cause of a context stopped by an OS signal.
type ShutdownError struct {
	Signal os.Signal
}

func (e *ShutdownError) Error() string {
	return "received " + e.Signal.String()
}

// WithShutdown returns a context canceled on SIGINT or SIGTERM. Unlike
// signal.NotifyContext, the received signal is kept as the context cause.
func WithShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			cancel(&ShutdownError{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// ShutdownSignal returns the OS signal that canceled ctx, or nil.
func ShutdownSignal(ctx context.Context) os.Signal {
	var se *ShutdownError
	if errors.As(context.Cause(ctx), &se) {
		return se.Signal
	}
	return nil
}
