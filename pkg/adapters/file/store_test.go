package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/aware/pkg/adapters/file"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSubscriptionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_TraceContract(t *testing.T) {
	ports.RunTraceStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_NamesAreEncoded(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	signal := "sound:crying/child"
	require.NoError(t, store.Save(ctx, signal, []domain.Subscription{{Signal: signal, Subscriber: "e1", Action: "cmd"}}))
	require.NoError(t, store.SaveTrace(ctx, &domain.Trace{ID: "01", Signal: signal}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ":")
	}

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{signal}, names, "trace directory and temp files are not signals")
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, "alarm", []domain.Subscription{{Signal: "alarm", Subscriber: "e1", Action: "cmd", Seq: uint64(i)}}))
	}

	matches, err := filepath.Glob(filepath.Join(dir, "tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
