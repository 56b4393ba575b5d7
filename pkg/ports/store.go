package ports

import (
	"context"

	"github.com/aretw0/aware/pkg/domain"
)

// SubscriptionStore persists the subscription sequence of each signal name.
// The sequence is opaque to the store and must be returned in the saved order.
type SubscriptionStore interface {
	// Save replaces the sequence stored for a signal name.
	Save(ctx context.Context, signal string, subs []domain.Subscription) error

	// Load retrieves the sequence for a signal name.
	// Returns domain.ErrSignalNotFound if nothing is stored.
	Load(ctx context.Context, signal string) ([]domain.Subscription, error)

	// Delete removes the sequence of a signal name. Deleting a missing name is not an error.
	Delete(ctx context.Context, signal string) error

	// List returns every stored signal name.
	List(ctx context.Context) ([]string, error)
}

// TraceStore keeps the last trace of each signal name.
type TraceStore interface {
	SaveTrace(ctx context.Context, trace *domain.Trace) error

	// LoadTrace returns domain.ErrTraceNotFound if no trace was saved for the name.
	LoadTrace(ctx context.Context, signal string) (*domain.Trace, error)
}
