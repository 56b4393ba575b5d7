package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/aware/internal/runtime"
	"github.com/aretw0/aware/pkg/adapters/memory"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(n int) *memory.World {
	w := memory.NewWorld()
	for i := 0; i < n-1; i++ {
		w.Link(domain.LocationID(fmt.Sprintf("L%d", i)), domain.LocationID(fmt.Sprintf("L%d", i+1)), "east", "west")
	}
	return w
}

func TestResolve_DistanceBound(t *testing.T) {
	w := line(5)

	reach, order, err := runtime.Resolve(context.Background(), w, "L0", 2)
	require.NoError(t, err)

	assert.Equal(t, []domain.LocationID{"L0", "L1", "L2"}, order)
	assert.Equal(t, 0, reach["L0"].Distance)
	assert.Nil(t, reach["L0"].Via)
	assert.Equal(t, 1, reach["L1"].Distance)
	assert.Equal(t, 2, reach["L2"].Distance)
	assert.NotContains(t, reach, domain.LocationID("L3"))
}

func TestResolve_ZeroIsOriginOnly(t *testing.T) {
	w := line(3)

	reach, _, err := runtime.Resolve(context.Background(), w, "L1", 0)
	require.NoError(t, err)
	assert.Len(t, reach, 1)
	assert.Contains(t, reach, domain.LocationID("L1"))
}

func TestResolve_TerminatesOnCycles(t *testing.T) {
	w := memory.NewWorld()
	w.Connect("A", "B", "b")
	w.Connect("B", "C", "c")
	w.Connect("C", "A", "a")
	w.Connect("A", "A", "loop")
	w.Connect("B", "A", "back")

	reach, order, err := runtime.Resolve(context.Background(), w, "A", 10)
	require.NoError(t, err)

	assert.Len(t, reach, 3)
	assert.Len(t, order, 3)
	assert.Equal(t, 2, reach["C"].Distance)
}

func TestResolve_FirstDiscoveredExitWins(t *testing.T) {
	w := memory.NewWorld()
	w.Connect("A", "B", "north")
	w.Connect("A", "C", "south")
	viaB := w.Connect("B", "D", "from-b")
	w.Connect("C", "D", "from-c")

	reach, _, err := runtime.Resolve(context.Background(), w, "A", 3)
	require.NoError(t, err)

	require.NotNil(t, reach["D"].Via)
	assert.Equal(t, 2, reach["D"].Distance)
	assert.Equal(t, viaB.ID, reach["D"].Via.ID)
}

func TestResolve_ShortestDistance(t *testing.T) {
	w := memory.NewWorld()
	w.Connect("A", "B", "long")
	w.Connect("B", "C", "long")
	w.Connect("A", "C", "short")

	reach, _, err := runtime.Resolve(context.Background(), w, "A", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, reach["C"].Distance)
	assert.Equal(t, "short", reach["C"].Via.Name)
}

func TestResolve_RecordsReturnExit(t *testing.T) {
	w := memory.NewWorld()
	out, back := w.Link("A", "B", "door", "door")

	reach, _, err := runtime.Resolve(context.Background(), w, "A", 1)
	require.NoError(t, err)
	require.NotNil(t, reach["B"].Via)
	assert.Equal(t, out.ID, reach["B"].Via.ID)
	assert.Equal(t, back.ID, reach["B"].Via.ReturnID)
}

func TestResolve_RejectsNegative(t *testing.T) {
	_, _, err := runtime.Resolve(context.Background(), memory.NewWorld(), "A", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidPropagation)
}

func TestResolve_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := runtime.Resolve(ctx, line(3), "L0", 2)
	assert.True(t, errors.Is(err, context.Canceled))
}
