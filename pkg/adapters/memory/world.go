package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/aware/pkg/domain"
)

type location struct {
	exits   []domain.Exit
	present map[domain.EntityID]struct{}
}

// World implements ports.World and ports.Mover over an in-memory graph.
// Exits are enumerated in the order they were added. Safe for concurrent use.
type World struct {
	mu        sync.RWMutex
	locations map[domain.LocationID]*location
	entities  map[domain.EntityID]domain.LocationID // "" = nowhere
	exitSeq   int
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		locations: make(map[domain.LocationID]*location),
		entities:  make(map[domain.EntityID]domain.LocationID),
	}
}

// AddLocation registers a location. Adding an existing location is a no-op.
func (w *World) AddLocation(ids ...domain.LocationID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range ids {
		w.addLocation(id)
	}
}

func (w *World) addLocation(id domain.LocationID) *location {
	loc, ok := w.locations[id]
	if !ok {
		loc = &location{present: make(map[domain.EntityID]struct{})}
		w.locations[id] = loc
	}
	return loc
}

// AddExit appends a directed exit. Missing endpoints are created; an empty ID is generated.
func (w *World) AddExit(exit domain.Exit) domain.Exit {
	w.mu.Lock()
	defer w.mu.Unlock()

	if exit.ID == "" {
		w.exitSeq++
		exit.ID = fmt.Sprintf("exit-%d", w.exitSeq)
	}
	from := w.addLocation(exit.From)
	w.addLocation(exit.To)
	from.exits = append(from.exits, exit)
	return exit
}

// Connect adds a one-way exit named name from one location to another.
func (w *World) Connect(from, to domain.LocationID, name string) domain.Exit {
	return w.AddExit(domain.Exit{From: from, To: to, Name: name})
}

// Link adds a pair of exits pointing at each other through ReturnID.
func (w *World) Link(a, b domain.LocationID, there, back string) (domain.Exit, domain.Exit) {
	w.mu.Lock()
	w.exitSeq += 2
	outID := fmt.Sprintf("exit-%d", w.exitSeq-1)
	backID := fmt.Sprintf("exit-%d", w.exitSeq)
	w.mu.Unlock()

	out := w.AddExit(domain.Exit{ID: outID, From: a, To: b, Name: there, ReturnID: backID})
	ret := w.AddExit(domain.Exit{ID: backID, From: b, To: a, Name: back, ReturnID: outID})
	return out, ret
}

// Place puts an entity at a location, or nowhere when loc is empty.
func (w *World) Place(entity domain.EntityID, loc domain.LocationID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.place(entity, loc)
}

func (w *World) place(entity domain.EntityID, loc domain.LocationID) {
	if prev, ok := w.entities[entity]; ok && prev != "" {
		delete(w.locations[prev].present, entity)
	}
	w.entities[entity] = loc
	if loc != "" {
		w.addLocation(loc).present[entity] = struct{}{}
	}
}

// Remove deletes an entity from the world.
func (w *World) Remove(entity domain.EntityID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.entities[entity]; ok && prev != "" {
		delete(w.locations[prev].present, entity)
	}
	delete(w.entities, entity)
}

// LocationOf returns the current location of an entity.
func (w *World) LocationOf(ctx context.Context, entity domain.EntityID) (domain.LocationID, bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	loc, ok := w.entities[entity]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, entity)
	}
	return loc, loc != "", nil
}

// EntitiesAt returns the entities present at a location, sorted.
func (w *World) EntitiesAt(ctx context.Context, id domain.LocationID) ([]domain.EntityID, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	loc, ok := w.locations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, id)
	}
	out := make([]domain.EntityID, 0, len(loc.present))
	for e := range loc.present {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ExitsOf returns the exits of a location in insertion order.
func (w *World) ExitsOf(ctx context.Context, id domain.LocationID) ([]domain.Exit, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	loc, ok := w.locations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, id)
	}
	return append([]domain.Exit(nil), loc.exits...), nil
}

// Entities returns every entity, sorted.
func (w *World) Entities(ctx context.Context) ([]domain.EntityID, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.EntityID, 0, len(w.entities))
	for e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Locations returns every location, sorted.
func (w *World) Locations() []domain.LocationID {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.LocationID, 0, len(w.locations))
	for id := range w.locations {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Move relocates an entity through an exit of its current location.
func (w *World) Move(ctx context.Context, entity domain.EntityID, exit domain.Exit) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	cur, ok := w.entities[entity]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEntityNotFound, entity)
	}
	if cur != exit.From {
		return fmt.Errorf("%s is not at %s", entity, exit.From)
	}
	if _, ok := w.locations[exit.To]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, exit.To)
	}
	w.place(entity, exit.To)
	return nil
}
