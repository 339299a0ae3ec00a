package itinerary

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Snapshots keeps the last Day Index read successfully from the store, so a
// view can still be served while the store is unreachable.
type Snapshots interface {
	Save(ctx context.Context, idx types.DayIndex) error
	// Load returns the saved index and whether one exists.
	Load(ctx context.Context) (types.DayIndex, bool, error)
}

// MemorySnapshots is an in-process Snapshots.
type MemorySnapshots struct {
	mu  sync.RWMutex
	idx types.DayIndex
	ok  bool
}

var _ Snapshots = (*MemorySnapshots)(nil)

func (s *MemorySnapshots) Save(_ context.Context, idx types.DayIndex) error {
	cp := cloneIndex(idx)
	s.mu.Lock()
	s.idx, s.ok = cp, true
	s.mu.Unlock()
	return nil
}

func (s *MemorySnapshots) Load(_ context.Context) (types.DayIndex, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return nil, false, nil
	}
	return cloneIndex(s.idx), true, nil
}

func cloneIndex(idx types.DayIndex) types.DayIndex {
	out := make(types.DayIndex, len(idx))
	for day, bucket := range idx {
		cp := make([]types.ItineraryItem, len(bucket))
		for i := range bucket {
			cp[i] = bucket[i].Clone()
		}
		out[day] = cp
	}
	return out
}
