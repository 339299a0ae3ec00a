package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// attachTemp attaches a backend to a fresh temp data dir and detaches it at
// test cleanup.
func attachTemp(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend(nil)
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	if _, err := os.Stat(filepath.Join(tmpDir, dbFile)); os.IsNotExist(err) {
		t.Errorf("%s not created", dbFile)
	}

	if err := b.Attach(config); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachRejectsBadConfig(t *testing.T) {
	b := NewBackend(nil)
	err := b.Attach(types.Config{})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	items, err := b.Items()
	require.NoError(t, err)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach should be idempotent")

	_, err = b.Items()
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = b.Expenses()
	assert.ErrorIs(t, err, types.ErrDetached)

	// A store handed out before Detach stops working with it.
	_, err = items.GetAll(context.Background())
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	err = items.Upsert(context.Background(), types.ItineraryItem{ID: "x", Day: 1})
	assert.ErrorIs(t, err, types.ErrWriteFailed)
	assert.True(t, errors.Is(err, types.ErrDetached))
}

func TestBackend_ReattachRebuildsFromJSONL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend(nil)
	require.NoError(t, b.Attach(config))
	items, err := b.Items()
	require.NoError(t, err)
	require.NoError(t, items.Upsert(ctx, types.ItineraryItem{ID: "a", Day: 1, SortOrder: 0, Title: "Palace", Type: types.ItemSight}))
	require.NoError(t, items.Upsert(ctx, types.ItineraryItem{ID: "b", Day: 1, SortOrder: 1, Title: "Market", Type: types.ItemShopping}))
	require.NoError(t, b.Detach())

	b2 := NewBackend(nil)
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()
	items2, err := b2.Items()
	require.NoError(t, err)

	all, err := items2.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"a", "b"}, types.IDs(all))
	assert.Equal(t, "Market", all[1].Title)
	assert.Equal(t, types.ItemShopping, all[1].Type)
}
