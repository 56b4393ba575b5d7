package ports

import (
	"context"

	"github.com/aretw0/aware/pkg/domain"
)

// World is the graph/location provider the dispatcher reads during a throw.
// Implementations must return exits in a stable enumeration order: it is the
// tie-break of the reachability resolver.
type World interface {
	// LocationOf returns the current location of an entity. ok is false when the
	// entity exists but is nowhere.
	LocationOf(ctx context.Context, entity domain.EntityID) (loc domain.LocationID, ok bool, err error)

	// EntitiesAt returns the entities currently present at a location.
	EntitiesAt(ctx context.Context, loc domain.LocationID) ([]domain.EntityID, error)

	// ExitsOf returns the outbound connections of a location.
	ExitsOf(ctx context.Context, loc domain.LocationID) ([]domain.Exit, error)

	// Entities returns every entity in the world. Used by global (non-local) throws.
	Entities(ctx context.Context) ([]domain.EntityID, error)
}

// Mover is implemented by worlds that can relocate an entity through an exit.
type Mover interface {
	Move(ctx context.Context, entity domain.EntityID, exit domain.Exit) error
}
