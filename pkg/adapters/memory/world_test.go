package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/aware/pkg/adapters/memory"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld_PresenceAndExits(t *testing.T) {
	ctx := context.Background()
	w := memory.NewWorld()
	out, back := w.Link("A", "B", "east", "west")
	w.Place("e1", "A")
	w.Place("e2", "A")
	w.Place("ghost", "")

	exits, err := w.ExitsOf(ctx, "A")
	require.NoError(t, err)
	require.Len(t, exits, 1)
	assert.Equal(t, out, exits[0])
	assert.Equal(t, back.ID, out.ReturnID)
	assert.Equal(t, out.ID, back.ReturnID)

	present, err := w.EntitiesAt(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []domain.EntityID{"e1", "e2"}, present)

	_, ok, err := w.LocationOf(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = w.LocationOf(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)

	_, err = w.ExitsOf(ctx, "Z")
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestWorld_Move(t *testing.T) {
	ctx := context.Background()
	w := memory.NewWorld()
	out, _ := w.Link("A", "B", "east", "west")
	w.Place("e1", "A")

	require.NoError(t, w.Move(ctx, "e1", out))

	loc, ok, err := w.LocationOf(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.LocationID("B"), loc)

	atA, _ := w.EntitiesAt(ctx, "A")
	assert.Empty(t, atA)

	assert.Error(t, w.Move(ctx, "e1", out), "e1 is no longer at the exit's origin")
}

func TestLoadWorld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	fixture := `
locations:
  - id: hall
    exits:
      - {id: hall-yard, name: "out;o", to: yard, return_id: yard-hall}
  - id: yard
    exits:
      - {id: yard-hall, name: in, to: hall, return_id: hall-yard}
entities:
  - {id: guard, location: hall}
  - {id: spirit}
`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	w, err := memory.LoadWorld(path)
	require.NoError(t, err)

	ctx := context.Background()
	exits, err := w.ExitsOf(ctx, "hall")
	require.NoError(t, err)
	require.Len(t, exits, 1)
	assert.Equal(t, domain.LocationID("hall"), exits[0].From)
	assert.Equal(t, []string{"out", "o"}, exits[0].Names())

	all, err := w.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.EntityID{"guard", "spirit"}, all)
	assert.Equal(t, []domain.LocationID{"hall", "yard"}, w.Locations())
}
