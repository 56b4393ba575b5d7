package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSubscription is returned when an identical subscription record already exists.
	ErrDuplicateSubscription = errors.New("subscription already exists")

	// ErrInvalidSubscription is returned when a record binds both an action and a callback,
	// has no subscriber, or carries parameters that cannot be stored.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrInvalidSignalName is returned for empty names or malformed separator usage.
	ErrInvalidSignalName = errors.New("invalid signal name")

	// ErrInvalidPropagation is returned when a propagation bound is negative or above the configured maximum.
	ErrInvalidPropagation = errors.New("invalid propagation distance")

	// ErrUnknownAction is recorded when a subscription names an action that is not registered.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownCallback is recorded when a subscription names a callback that is not registered.
	ErrUnknownCallback = errors.New("unknown callback")

	// ErrAmbiguousResolution is returned by actions that cannot uniquely resolve their target.
	ErrAmbiguousResolution = errors.New("ambiguous resolution")

	// ErrNoMatch is returned by actions that cannot resolve their target at all.
	ErrNoMatch = errors.New("no match")

	// ErrActionDeclined is recorded when a handler reports it did not handle the signal.
	ErrActionDeclined = errors.New("action declined")

	// ErrInvocationTimeout is recorded when a handler exceeds the invocation timeout.
	ErrInvocationTimeout = errors.New("invocation timed out")

	// ErrStopDelivery may be returned by a handler to halt the remaining deliveries of the
	// current throw. It is not recorded as a failure.
	ErrStopDelivery = errors.New("stop delivery")

	// ErrSignalNotFound is returned by stores when no sequence exists for a signal name.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrTraceNotFound is returned by trace stores when no trace was recorded for a signal name.
	ErrTraceNotFound = errors.New("trace not found")

	// ErrLocationNotFound is returned by world providers for unknown locations.
	ErrLocationNotFound = errors.New("location not found")

	// ErrEntityNotFound is returned by world providers for unknown entities.
	ErrEntityNotFound = errors.New("entity not found")
)

// SignalNameError describes why a signal name was rejected.
type SignalNameError struct {
	Name   string
	Reason string
}

func (e *SignalNameError) Error() string {
	return fmt.Sprintf("invalid signal name %q: %s", e.Name, e.Reason)
}

func (e *SignalNameError) Unwrap() error {
	return ErrInvalidSignalName
}

// DeliveryError wraps a failure of a single recipient during a throw.
type DeliveryError struct {
	Subscriber EntityID
	Handler    string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s via %s failed: %v", e.Subscriber, e.Handler, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// ErrMissingSource is returned when a signal is thrown without a source entity.
var ErrMissingSource = errors.New("signal has no source")
