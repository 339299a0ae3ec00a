package itinerary

import (
	"context"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Move returns bucket with activeID taken out and put back in front of
// target (behind it when target.After is set), renumbered 0..N-1. The
// reported bool is false when the order did not change.
func Move(bucket []types.ItineraryItem, activeID string, target DropTarget) ([]types.ItineraryItem, bool, error) {
	from := indexOf(bucket, activeID)
	if from < 0 {
		return nil, false, fmt.Errorf("item %s: %w", activeID, types.ErrNotFound)
	}
	if target.ItemID == activeID {
		return renumber(bucket), false, nil
	}
	if indexOf(bucket, target.ItemID) < 0 {
		return nil, false, fmt.Errorf("drop target %s: %w", target.ItemID, types.ErrNotFound)
	}

	active := bucket[from]
	rest := slices.Delete(slices.Clone(bucket), from, from+1)
	to := indexOf(rest, target.ItemID)
	if target.After {
		to++
	}
	moved := slices.Insert(rest, to, active)

	changed := false
	for i := range moved {
		if moved[i].ID != bucket[i].ID {
			changed = true
			break
		}
	}
	return renumber(moved), changed, nil
}

// Remove returns bucket without id, renumbered 0..N-1.
func Remove(bucket []types.ItineraryItem, id string) ([]types.ItineraryItem, error) {
	i := indexOf(bucket, id)
	if i < 0 {
		return nil, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
	}
	return renumber(slices.Delete(slices.Clone(bucket), i, i+1)), nil
}

// Result is the optimistic outcome of a mutation. Mutation is nil when
// nothing had to be written.
type Result struct {
	Items    []types.ItineraryItem
	Mutation *Mutation
}

// Operation names recorded on tracked writes.
const (
	OpReorder = "reorder"
	OpDelete  = "delete"
	OpCreate  = "create"
	OpUpdate  = "update"
)

// Engine applies gesture outcomes to a day: it computes the new order at
// once and queues the store writes on the day's serializer lane.
type Engine struct {
	store   types.ItemStore
	lanes   *Serializer
	tracker *Tracker
	// finished is called from the lane goroutine after every write, before
	// the mutation's waiters are released.
	finished func(m *Mutation, st WriteState)
}

// NewEngine wires an engine to its store, serializer and tracker.
// finished may be nil.
func NewEngine(store types.ItemStore, lanes *Serializer, tracker *Tracker, finished func(*Mutation, WriteState)) *Engine {
	return &Engine{store: store, lanes: lanes, tracker: tracker, finished: finished}
}

// Apply turns out into the day's new optimistic order. bucket is the caller's
// current view of out.Day, ordered by sortOrder.
//
// Reordered queues BatchSetSortOrder with the new id order; Deleted queues
// Delete followed by BatchSetSortOrder of the remaining ids. Cancelled
// gestures, no-op reorders and deletes of ids no longer in the day queue
// nothing.
func (e *Engine) Apply(bucket []types.ItineraryItem, out Outcome) (Result, error) {
	switch out.Kind {
	case OutcomeCancelled:
		return Result{Items: renumber(bucket)}, nil

	case OutcomeReordered:
		moved, changed, err := Move(bucket, out.ActiveID, out.Target)
		if err != nil {
			return Result{}, err
		}
		if !changed {
			return Result{Items: moved}, nil
		}
		ids := types.IDs(moved)
		m, err := e.Enqueue(out.Day, OpReorder, func(ctx context.Context) error {
			return e.store.BatchSetSortOrder(ctx, out.Day, ids)
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Items: moved, Mutation: m}, nil

	case OutcomeDeleted:
		if indexOf(bucket, out.ActiveID) < 0 {
			// Already gone: deleting twice is a no-op.
			return Result{Items: renumber(bucket)}, nil
		}
		remaining, err := Remove(bucket, out.ActiveID)
		if err != nil {
			return Result{}, err
		}
		ids := types.IDs(remaining)
		m, err := e.Enqueue(out.Day, OpDelete, func(ctx context.Context) error {
			if err := e.store.Delete(ctx, out.ActiveID); err != nil {
				return err
			}
			return e.store.BatchSetSortOrder(ctx, out.Day, ids)
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Items: remaining, Mutation: m}, nil

	default:
		return Result{}, fmt.Errorf("unknown outcome %q", out.Kind)
	}
}

// Enqueue tracks run as a write on day and queues it behind the day's
// earlier writes.
func (e *Engine) Enqueue(day int, op string, run func(ctx context.Context) error) (*Mutation, error) {
	m := e.tracker.Begin(day, op)
	err := e.lanes.Submit(day, run, func(err error) {
		st := e.tracker.Record(m, err)
		if e.finished != nil {
			e.finished(m, st)
		}
		e.tracker.Release(m, err)
	})
	if err != nil {
		e.tracker.Finish(m, err)
		return nil, err
	}
	return m, nil
}
