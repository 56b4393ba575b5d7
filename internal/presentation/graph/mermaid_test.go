package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/aware/internal/presentation/graph"
	"github.com/aretw0/aware/internal/runtime"
	"github.com/aretw0/aware/pkg/adapters/memory"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func world() *memory.World {
	w := memory.NewWorld()
	w.Link("nursery", "hall", "door", "door")
	w.Link("hall", "back-yard", "back door;back", "house")
	w.AddLocation("attic")
	w.Place("baby", "nursery")
	w.Place("parent", "hall")
	return w
}

func TestGenerateMermaid(t *testing.T) {
	ctx := context.Background()
	w := world()

	out, err := graph.GenerateMermaid(ctx, w, w.Locations(), nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		contains string
	}{
		{"header", "graph LR\n"},
		{"location with occupant", `nursery["nursery <br/> baby"]`},
		{"empty location", `attic["attic"]`},
		{"sanitized id", `back_yard["back-yard"]`},
		{"exit primary name", `hall -->|"back door"| back_yard`},
		{"return exit", `back_yard -->|"house"| hall`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, out, tt.contains)
		})
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	ctx := context.Background()
	w := world()

	reach, _, err := runtime.Resolve(ctx, w, "nursery", 1)
	require.NoError(t, err)

	out, err := graph.GenerateMermaid(ctx, w, w.Locations(), &graph.ReachOverlay{Origin: "nursery", Reach: reach})
	require.NoError(t, err)

	assert.Contains(t, out, `nursery["nursery <br/> d=0 <br/> baby"]`)
	assert.Contains(t, out, `hall["hall <br/> d=1 <br/> parent"]`)
	assert.Contains(t, out, `nursery ==>|"door"| hall`)
	assert.Contains(t, out, "class hall reached;")
	assert.Contains(t, out, "class nursery origin;")
	assert.False(t, strings.Contains(out, "class back_yard"), "back-yard is beyond the bound")
}

func TestGenerateMermaid_UnknownLocation(t *testing.T) {
	_, err := graph.GenerateMermaid(context.Background(), world(), []domain.LocationID{"void"}, nil)
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}
