package tripdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/internal/docstore"
	"github.com/mesh-intelligence/tripdeck/internal/memstore"
	"github.com/mesh-intelligence/tripdeck/internal/sqlite"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(types.Config{Backend: types.BackendSQLite}, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Backend{}, b)

	b, err = NewBackend(types.Config{Backend: types.BackendMongo, MongoURI: "mongodb://localhost"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &docstore.Backend{}, b)

	b, err = NewBackend(types.Config{Backend: types.BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memstore.Backend{}, b)

	_, err = NewBackend(types.Config{Backend: "postgres"}, nil)
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
	_, err = NewBackend(types.Config{Backend: types.BackendMongo}, nil)
	assert.ErrorIs(t, err, types.ErrMongoURIMissing)
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	cfg := types.Config{Backend: types.BackendMemory}
	b, err := NewBackend(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, b.Attach(cfg))
	defer b.Detach()

	items, err := b.Items()
	require.NoError(t, err)
	all, err := items.GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all)

	lists, err := b.Checklist()
	require.NoError(t, err)
	_, err = lists.Load(t.Context())
	assert.ErrorIs(t, err, types.ErrNotFound)
}
