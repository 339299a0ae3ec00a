// Package itinerary is the core of tripdeck: it projects stored items into
// day buckets, turns drag gestures into reorder and delete mutations,
// prepares edited items, and serializes every write per day.
package itinerary

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// ErrNotDense reports a day whose sortOrder values are not exactly 0..N-1.
var ErrNotDense = errors.New("day is not dense")

// Project groups items by day and orders every bucket by sortOrder, ties
// broken by id. It does not modify items.
func Project(items []types.ItineraryItem) types.DayIndex {
	idx := make(types.DayIndex)
	for _, it := range items {
		idx[it.Day] = append(idx[it.Day], it.Clone())
	}
	for _, bucket := range idx {
		types.SortDay(bucket)
	}
	return idx
}

// CheckDense verifies the density invariant for every day present in items
// and describes the first violation found, lowest day first.
func CheckDense(items []types.ItineraryItem) error {
	idx := Project(items)
	for _, day := range idx.Days() {
		for pos, it := range idx[day] {
			if it.SortOrder != pos {
				return fmt.Errorf("%w: day %d position %d holds %s with sortOrder %d",
					ErrNotDense, day, pos, it.ID, it.SortOrder)
			}
		}
	}
	return nil
}

// renumber returns a copy of bucket with sortOrder set to the slice index.
func renumber(bucket []types.ItineraryItem) []types.ItineraryItem {
	out := make([]types.ItineraryItem, len(bucket))
	for i := range bucket {
		out[i] = bucket[i].Clone()
		out[i].SortOrder = i
	}
	return out
}

// indexOf returns the position of id in bucket, or -1.
func indexOf(bucket []types.ItineraryItem, id string) int {
	for i := range bucket {
		if bucket[i].ID == id {
			return i
		}
	}
	return -1
}
