// Package memstore is an in-process tripdeck backend. Nothing is persisted;
// it serves tests, demos and the "memory" backend setting.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Backend implements types.Backend with mutex-guarded maps.
type Backend struct {
	mu        sync.RWMutex
	attached  bool
	items     *Items
	expenses  *Expenses
	checklist *Checklist
}

// NewBackend returns a detached backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach starts with empty stores. Returns ErrAlreadyAttached if attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	b.items = NewItems()
	b.expenses = NewExpenses()
	b.checklist = &Checklist{}
	b.attached = true
	return nil
}

// Detach drops all data. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attached = false
	b.items = nil
	b.expenses = nil
	b.checklist = nil
	return nil
}

func (b *Backend) Items() (types.ItemStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.items, nil
}

func (b *Backend) Expenses() (types.ExpenseStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.expenses, nil
}

func (b *Backend) Checklist() (types.ChecklistStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.checklist, nil
}

// Items is an in-memory types.ItemStore. The zero value is not usable; call
// NewItems.
type Items struct {
	mu    sync.RWMutex
	byID  map[string]types.ItineraryItem
	order []string // insertion order, so GetAll is stable
}

var (
	_ types.ItemStore    = (*Items)(nil)
	_ types.BulkUpserter = (*Items)(nil)
)

// NewItems returns an empty store, optionally preloaded with items.
func NewItems(items ...types.ItineraryItem) *Items {
	s := &Items{byID: make(map[string]types.ItineraryItem)}
	for _, it := range items {
		s.put(it)
	}
	return s
}

func (s *Items) put(it types.ItineraryItem) {
	if _, ok := s.byID[it.ID]; !ok {
		s.order = append(s.order, it.ID)
	}
	s.byID[it.ID] = it.Clone()
}

// GetAll returns deep copies of every item.
func (s *Items) GetAll(ctx context.Context) ([]types.ItineraryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Unavailable("get all items", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ItineraryItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

// Upsert stores a copy of item, replacing any item with the same id.
func (s *Items) Upsert(ctx context.Context, item types.ItineraryItem) error {
	if item.ID == "" {
		return types.ErrInvalidID
	}
	if item.Day < 1 {
		return types.ErrInvalidDay
	}
	if err := ctx.Err(); err != nil {
		return types.WriteFailed("upsert item", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(item)
	return nil
}

// UpsertAll stores every item under one lock. Nothing is stored when any
// item is invalid.
func (s *Items) UpsertAll(ctx context.Context, items []types.ItineraryItem) error {
	for _, it := range items {
		if it.ID == "" {
			return types.ErrInvalidID
		}
		if it.Day < 1 {
			return types.ErrInvalidDay
		}
	}
	if err := ctx.Err(); err != nil {
		return types.WriteFailed("upsert items", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.put(it)
	}
	return nil
}

// Delete removes the item if present.
func (s *Items) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return types.WriteFailed("delete item", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return nil
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// BatchSetSortOrder renumbers day under the store lock.
func (s *Items) BatchSetSortOrder(ctx context.Context, day int, orderedIDs []string) error {
	if day < 1 {
		return types.ErrInvalidDay
	}
	if err := ctx.Err(); err != nil {
		return types.WriteFailed("batch set sort order", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current []types.ItineraryItem
	for _, id := range s.order {
		if it := s.byID[id]; it.Day == day {
			current = append(current, it)
		}
	}
	for id, pos := range types.OrderChanges(current, types.MergeOrder(current, orderedIDs)) {
		it := s.byID[id]
		it.SortOrder = pos
		s.byID[id] = it
	}
	return nil
}

// Expenses is an in-memory types.ExpenseStore.
type Expenses struct {
	mu   sync.RWMutex
	byID map[string]types.Expense
}

var _ types.ExpenseStore = (*Expenses)(nil)

// NewExpenses returns an empty ledger.
func NewExpenses() *Expenses {
	return &Expenses{byID: make(map[string]types.Expense)}
}

// List returns the ledger ordered by date descending, then id.
func (s *Expenses) List(ctx context.Context) ([]types.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Unavailable("list expenses", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Expense, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Put creates or updates an expense.
func (s *Expenses) Put(ctx context.Context, e types.Expense) (string, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", types.WriteFailed("put expense", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	} else if _, ok := s.byID[e.ID]; !ok {
		return "", types.ErrNotFound
	}
	s.byID[e.ID] = e
	return e.ID, nil
}

// Delete removes an expense if present.
func (s *Expenses) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

// Checklist is an in-memory types.ChecklistStore. The zero value holds no
// checklist.
type Checklist struct {
	mu  sync.RWMutex
	doc *types.Checklist
}

var _ types.ChecklistStore = (*Checklist)(nil)

// Load returns a copy of the saved checklist, or ErrNotFound.
func (s *Checklist) Load(ctx context.Context) (types.Checklist, error) {
	if err := ctx.Err(); err != nil {
		return types.Checklist{}, types.Unavailable("load checklist", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return types.Checklist{}, types.ErrNotFound
	}
	return s.doc.Clone(), nil
}

// Save stores a copy of c.
func (s *Checklist) Save(ctx context.Context, c types.Checklist) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return types.WriteFailed("save checklist", err)
	}
	doc := c.Clone()
	s.mu.Lock()
	s.doc = &doc
	s.mu.Unlock()
	return nil
}
