package itinerary

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/internal/memstore"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// flakyStore wraps an in-memory store and can fail or hold writes.
type flakyStore struct {
	*memstore.Items

	mu        sync.Mutex
	readErr   error
	writeErr  error
	gate      chan struct{} // when set, writes wait for it to close
	batchErr  error         // returned by the next batch only
	batchDays []int
}

func newFlakyStore(items ...types.ItineraryItem) *flakyStore {
	return &flakyStore{Items: memstore.NewItems(items...)}
}

func (s *flakyStore) setReadErr(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

func (s *flakyStore) setWriteErr(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// failNextBatch makes the next BatchSetSortOrder return err.
func (s *flakyStore) failNextBatch(err error) {
	s.mu.Lock()
	s.batchErr = err
	s.mu.Unlock()
}

// hold makes writes block until the returned function is called.
func (s *flakyStore) hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	return func() { close(gate) }
}

func (s *flakyStore) beforeWrite(ctx context.Context) error {
	s.mu.Lock()
	gate, err := s.gate, s.writeErr
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (s *flakyStore) GetAll(ctx context.Context) ([]types.ItineraryItem, error) {
	s.mu.Lock()
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Items.GetAll(ctx)
}

func (s *flakyStore) Upsert(ctx context.Context, it types.ItineraryItem) error {
	if err := s.beforeWrite(ctx); err != nil {
		return err
	}
	return s.Items.Upsert(ctx, it)
}

func (s *flakyStore) Delete(ctx context.Context, id string) error {
	if err := s.beforeWrite(ctx); err != nil {
		return err
	}
	return s.Items.Delete(ctx, id)
}

func (s *flakyStore) BatchSetSortOrder(ctx context.Context, day int, ids []string) error {
	if err := s.beforeWrite(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.batchDays = append(s.batchDays, day)
	err := s.batchErr
	s.batchErr = nil
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Items.BatchSetSortOrder(ctx, day, ids)
}

// bucketOf builds a dense bucket for day with the given ids.
func bucketOf(n int, ids ...string) []types.ItineraryItem {
	out := make([]types.ItineraryItem, len(ids))
	for i, id := range ids {
		out[i] = types.ItineraryItem{ID: id, Day: n, SortOrder: i, Title: id, Type: types.ItemSight}
	}
	return out
}

// storedOrder reads day straight from the store and checks density.
func storedOrder(t *testing.T, store types.ItemStore, d int) []string {
	t.Helper()
	items, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.NoError(t, CheckDense(items))
	return types.IDs(Project(items).Bucket(d))
}

func ptr[T any](v T) *T { return &v }
