package types

import (
	"sort"
)

// DayIndex maps a day number to that day's items ordered by SortOrder.
type DayIndex map[int][]ItineraryItem

// Days returns the day numbers present in the index in ascending order.
func (x DayIndex) Days() []int {
	days := make([]int, 0, len(x))
	for d := range x {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Bucket returns the ordered items of day, or an empty slice.
func (x DayIndex) Bucket(day int) []ItineraryItem {
	if items, ok := x[day]; ok {
		return items
	}
	return []ItineraryItem{}
}

// Len returns the total number of items across all days.
func (x DayIndex) Len() int {
	n := 0
	for _, items := range x {
		n += len(items)
	}
	return n
}

// SortDay orders items in place by SortOrder, breaking ties by ID.
func SortDay(items []ItineraryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
}

// MergeOrder computes the complete order of a day for BatchSetSortOrder.
//
// dayItems are the items currently stored for the day in any order. The
// result lists the ids of orderedIDs that belong to the day (first
// occurrence wins), followed by the remaining day items in their stored
// order. Every backend renumbers a day from this result, which keeps the day
// dense even when the caller's view of it was stale.
func MergeOrder(dayItems []ItineraryItem, orderedIDs []string) []string {
	current := make([]ItineraryItem, len(dayItems))
	copy(current, dayItems)
	SortDay(current)

	inDay := make(map[string]bool, len(current))
	for _, it := range current {
		inDay[it.ID] = true
	}

	final := make([]string, 0, len(current))
	placed := make(map[string]bool, len(current))
	for _, id := range orderedIDs {
		if !inDay[id] || placed[id] {
			continue
		}
		placed[id] = true
		final = append(final, id)
	}
	for _, it := range current {
		if !placed[it.ID] {
			final = append(final, it.ID)
		}
	}
	return final
}

// OrderChanges returns id -> new sortOrder for the ids of final whose stored
// sortOrder differs from their index. Backends write only these.
func OrderChanges(dayItems []ItineraryItem, final []string) map[string]int {
	stored := make(map[string]int, len(dayItems))
	for _, it := range dayItems {
		stored[it.ID] = it.SortOrder
	}
	changes := make(map[string]int)
	for i, id := range final {
		if cur, ok := stored[id]; !ok || cur != i {
			changes[id] = i
		}
	}
	return changes
}
