package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventThrow    EventType = "throw"
	EventDeliver  EventType = "deliver"
	EventFailure  EventType = "failure"
	EventComplete EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	TraceID   string    `json:"trace_id"`
}

// ThrowEvent marks the start and the end of a throw.
type ThrowEvent struct {
	EventBase
	Signal    string        `json:"signal"`
	Source    EntityID      `json:"source"`
	Local     bool          `json:"local"`
	Notified  int           `json:"notified,omitempty"`
	Failures  int           `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Stopped   bool          `json:"stopped,omitempty"`
	Reachable int           `json:"reachable,omitempty"`
}

// DeliveryEvent represents one handler invocation.
type DeliveryEvent struct {
	EventBase
	Signal     string        `json:"signal"`
	Subscriber EntityID      `json:"subscriber"`
	Handler    string        `json:"handler"`
	Distance   int           `json:"distance"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// LifecycleHooks defines callbacks for dispatch observability.
type LifecycleHooks struct {
	OnThrow    func(context.Context, *ThrowEvent)
	OnDeliver  func(context.Context, *DeliveryEvent)
	OnFailure  func(context.Context, *DeliveryEvent)
	OnComplete func(context.Context, *ThrowEvent)
}
