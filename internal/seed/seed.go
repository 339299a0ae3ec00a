// Package seed holds the bundled trip dataset and the one-shot seeding of an
// empty store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

//go:embed itinerary.json
var bundled []byte

// Version is the schema version of dataset documents this package reads.
const Version = 1

// Dataset is a versioned trip document: day buckets in display order plus
// an optional expense ledger and pre-trip checklist.
type Dataset struct {
	Version   int              `json:"version"`
	Trip      string           `json:"trip,omitempty"`
	Days      []DaySchedule    `json:"days"`
	Expenses  []types.Expense  `json:"expenses,omitempty"`
	Checklist *types.Checklist `json:"checklist,omitempty"`
}

// DaySchedule lists the items of one day in order. Item positions come from
// the slice order; any sortOrder in the document is ignored.
type DaySchedule struct {
	Day   int                   `json:"day"`
	Date  string                `json:"date,omitempty"`
	Items []types.ItineraryItem `json:"items"`
}

// Default returns the bundled dataset.
func Default() (Dataset, error) {
	return Parse(bundled)
}

// Parse decodes and checks a dataset document.
func Parse(data []byte) (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decoding dataset: %w", err)
	}
	if ds.Version != Version {
		return Dataset{}, fmt.Errorf("unsupported dataset version %d", ds.Version)
	}
	seen := make(map[string]bool)
	for _, d := range ds.Days {
		if d.Day < 1 {
			return Dataset{}, fmt.Errorf("day %d: %w", d.Day, types.ErrInvalidDay)
		}
		for _, it := range d.Items {
			if it.ID == "" {
				return Dataset{}, fmt.Errorf("day %d: item without id: %w", d.Day, types.ErrInvalidID)
			}
			if seen[it.ID] {
				return Dataset{}, fmt.Errorf("duplicate item id %q", it.ID)
			}
			seen[it.ID] = true
			if it.Type != "" && !it.Type.Valid() {
				return Dataset{}, fmt.Errorf("item %s: %w", it.ID, types.ErrInvalidItemType)
			}
		}
	}
	if ds.Checklist != nil {
		if err := ds.Checklist.Validate(); err != nil {
			return Dataset{}, fmt.Errorf("checklist: %w", err)
		}
	}
	return ds, nil
}

// InitialChecklist returns a copy of the dataset checklist, or empty lists
// when the dataset has none.
func (ds Dataset) InitialChecklist() types.Checklist {
	if ds.Checklist == nil {
		return types.Checklist{}.Clone()
	}
	c := ds.Checklist.Clone()
	c.Normalize()
	return c
}

// Items flattens the dataset, stamping each item with its day and its index
// within that day. Missing types become the default type.
func (ds Dataset) Items() []types.ItineraryItem {
	var out []types.ItineraryItem
	for _, d := range ds.Days {
		for i, it := range d.Items {
			it.Day = d.Day
			it.SortOrder = i
			if it.Type == "" {
				it.Type = types.DefaultItemType
			}
			out = append(out, it)
		}
	}
	return out
}

// DateOf returns the calendar date of day, or "" when the dataset has none.
func (ds Dataset) DateOf(day int) string {
	for _, d := range ds.Days {
		if d.Day == day {
			return d.Date
		}
	}
	return ""
}

// Apply writes every dataset item to store when the store holds no items.
// It returns the number of items written; a store that already has items is
// left untouched and Apply returns 0.
//
// Stores implementing types.BulkUpserter take the whole dataset in one
// write, so a failure leaves the store empty and the next Apply retries.
// Other stores are written item by item and may keep a partial dataset.
func Apply(ctx context.Context, store types.ItemStore, ds Dataset) (int, error) {
	existing, err := store.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	items := ds.Items()
	if bulk, ok := store.(types.BulkUpserter); ok {
		if err := bulk.UpsertAll(ctx, items); err != nil {
			return 0, fmt.Errorf("seeding items: %w", err)
		}
		return len(items), nil
	}
	for i, it := range items {
		if err := store.Upsert(ctx, it); err != nil {
			return i, fmt.Errorf("seeding %s: %w", it.ID, err)
		}
	}
	return len(items), nil
}

// ApplyExpenses adds the dataset expenses when the ledger is empty.
func ApplyExpenses(ctx context.Context, store types.ExpenseStore, ds Dataset) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, e := range ds.Expenses {
		e.ID = ""
		if _, err := store.Put(ctx, e); err != nil {
			return i, fmt.Errorf("seeding expense %q: %w", e.Title, err)
		}
	}
	return len(ds.Expenses), nil
}

// ApplyChecklist saves the dataset checklist when the store has none and
// returns the number of entries written. Datasets without a checklist write
// nothing.
func ApplyChecklist(ctx context.Context, store types.ChecklistStore, ds Dataset) (int, error) {
	if ds.Checklist == nil {
		return 0, nil
	}
	_, err := store.Load(ctx)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return 0, err
	}
	c := ds.InitialChecklist()
	if err := store.Save(ctx, c); err != nil {
		return 0, fmt.Errorf("seeding checklist: %w", err)
	}
	return len(c.Todo) + len(c.Packing), nil
}
