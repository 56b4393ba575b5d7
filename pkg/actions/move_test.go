package actions_test

import (
	"context"
	"testing"

	"github.com/aretw0/aware/pkg/actions"
	"github.com/aretw0/aware/pkg/adapters/memory"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exits() []domain.Exit {
	return []domain.Exit{
		{ID: "e-north", Name: "north;n", To: "hall"},
		{ID: "e-northeast", Name: "northeast;ne", To: "garden"},
		{ID: "e-south", Name: "south", Aliases: []string{"s"}, To: "cellar"},
		{ID: "e-stairs", Name: "stairs", To: "attic"},
	}
}

func TestResolveExit(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{name: "exact name", query: "north", want: "e-north"},
		{name: "exact alias beats prefix", query: "n", want: "e-north"},
		{name: "alias list", query: "S", want: "e-south"},
		{name: "unique prefix", query: "sou", want: "e-south"},
		{name: "prefix", query: "st", want: "e-stairs"},
		{name: "typo", query: "suoth", want: "e-south"},
		{name: "prefix of a longer name", query: "northeas", want: "e-northeast"},
		{name: "short query typo", query: "up", wantErr: domain.ErrNoMatch},
		{name: "prefix matches two", query: "nor", wantErr: domain.ErrAmbiguousResolution},
		{name: "too far", query: "window", wantErr: domain.ErrNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exit, err := actions.ResolveExit(exits(), tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, exit.ID)
		})
	}
}

func TestResolveExit_AmbiguousTypo(t *testing.T) {
	list := []domain.Exit{
		{ID: "a", Name: "cat"},
		{ID: "b", Name: "cut"},
	}
	_, err := actions.ResolveExit(list, "cot")
	assert.ErrorIs(t, err, domain.ErrAmbiguousResolution)
}

func TestMove(t *testing.T) {
	w := memory.NewWorld()
	w.Link("yard", "hall", "north;n", "south;s")
	w.Link("yard", "barn", "nowhere;nw", "back")
	w.Place("dog", "yard")

	fn := actions.Move(w)
	dc := &registry.DispatchContext{World: w}

	handled, err := fn(context.Background(), "dog", "sound:whistle", dc, domain.Params{"exit": "north"})
	require.NoError(t, err)
	assert.True(t, handled)

	loc, _, err := w.LocationOf(context.Background(), "dog")
	require.NoError(t, err)
	assert.Equal(t, domain.LocationID("hall"), loc)

	_, err = fn(context.Background(), "dog", "sound:whistle", dc, domain.Params{"exit": "window"})
	assert.ErrorIs(t, err, domain.ErrNoMatch)

	_, err = fn(context.Background(), "dog", "sound:whistle", dc, domain.Params{})
	assert.ErrorIs(t, err, actions.ErrInvalidParams)
}

func TestMove_Ambiguous(t *testing.T) {
	w := memory.NewWorld()
	w.Connect("yard", "hall", "north")
	w.Connect("yard", "barn", "northwest")
	w.Place("dog", "yard")

	handled, err := actions.Move(w)(context.Background(), "dog", "alarm", &registry.DispatchContext{World: w}, domain.Params{"exit": "nor"})
	assert.False(t, handled)
	assert.ErrorIs(t, err, domain.ErrAmbiguousResolution)

	loc, _, _ := w.LocationOf(context.Background(), "dog")
	assert.Equal(t, domain.LocationID("yard"), loc)
}
