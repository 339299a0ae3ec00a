// Package checklist manages the pre-trip to-do and packing lists.
//
// The lists are one document. Every change loads it, edits one entry and
// saves it whole, serialized by the service lock. A store without a saved
// document is seeded with the initial lists on first read.
package checklist

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Patch changes selected fields of an entry. Nil fields are left alone.
type Patch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// Service edits the checklist held by a types.ChecklistStore.
type Service struct {
	mu      sync.Mutex
	store   types.ChecklistStore
	initial types.Checklist
	log     *slog.Logger
}

// New returns a service over store. initial is saved the first time the
// store turns out to be empty. A nil logger discards output.
func New(store types.ChecklistStore, initial types.Checklist, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, initial: initial.Clone(), log: log}
}

// Get returns both lists.
func (s *Service) Get(ctx context.Context) (types.Checklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Service) loadLocked(ctx context.Context) (types.Checklist, error) {
	c, err := s.store.Load(ctx)
	if errors.Is(err, types.ErrNotFound) {
		c = s.initial.Clone()
		c.Normalize()
		if err := s.store.Save(ctx, c); err != nil {
			return types.Checklist{}, err
		}
		s.log.Info("seeded pre-trip checklist", "todo", len(c.Todo), "packing", len(c.Packing))
		return c, nil
	}
	if err != nil {
		return types.Checklist{}, err
	}
	c = c.Clone()
	c.Normalize()
	return c, nil
}

// Add appends a new, uncompleted entry to list. Packing entries without a
// category go to types.DefaultPackingCategory; to-do entries drop it.
func (s *Service) Add(ctx context.Context, list, text, category string) (types.ChecklistEntry, error) {
	if err := checkList(list); err != nil {
		return types.ChecklistEntry{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ChecklistEntry{}, types.Invalid("text", "must not be empty")
	}
	category, err := entryCategory(list, strings.TrimSpace(category))
	if err != nil {
		return types.ChecklistEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.loadLocked(ctx)
	if err != nil {
		return types.ChecklistEntry{}, err
	}
	e := types.ChecklistEntry{ID: uuid.Must(uuid.NewV7()).String(), Text: text, Category: category}
	c.SetList(list, append(c.List(list), e))
	if err := s.store.Save(ctx, c); err != nil {
		return types.ChecklistEntry{}, err
	}
	return e, nil
}

// Update applies p to the entry id of list. Returns ErrNotFound when the
// entry does not exist.
func (s *Service) Update(ctx context.Context, list, id string, p Patch) (types.ChecklistEntry, error) {
	if err := checkList(list); err != nil {
		return types.ChecklistEntry{}, err
	}
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return types.ChecklistEntry{}, types.Invalid("text", "must not be empty")
		}
		p.Text = &text
	}
	if p.Category != nil {
		if list == types.ListTodo {
			return types.ChecklistEntry{}, types.Invalid("category", "to-do entries have no category")
		}
		category, err := entryCategory(list, strings.TrimSpace(*p.Category))
		if err != nil {
			return types.ChecklistEntry{}, err
		}
		p.Category = &category
	}
	return s.edit(ctx, list, id, func(e *types.ChecklistEntry) {
		if p.Text != nil {
			e.Text = *p.Text
		}
		if p.Completed != nil {
			e.Completed = *p.Completed
		}
		if p.Category != nil {
			e.Category = *p.Category
		}
	})
}

// Toggle flips the completed flag of the entry id of list.
func (s *Service) Toggle(ctx context.Context, list, id string) (types.ChecklistEntry, error) {
	if err := checkList(list); err != nil {
		return types.ChecklistEntry{}, err
	}
	return s.edit(ctx, list, id, func(e *types.ChecklistEntry) {
		e.Completed = !e.Completed
	})
}

func (s *Service) edit(ctx context.Context, list, id string, fn func(*types.ChecklistEntry)) (types.ChecklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.loadLocked(ctx)
	if err != nil {
		return types.ChecklistEntry{}, err
	}
	entries := c.List(list)
	i := indexOf(entries, id)
	if i < 0 {
		return types.ChecklistEntry{}, types.ErrNotFound
	}
	fn(&entries[i])
	if err := s.store.Save(ctx, c); err != nil {
		return types.ChecklistEntry{}, err
	}
	return entries[i], nil
}

// Remove deletes the entry id of list. Removing a missing entry succeeds.
func (s *Service) Remove(ctx context.Context, list, id string) error {
	if err := checkList(list); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	entries := c.List(list)
	i := indexOf(entries, id)
	if i < 0 {
		return nil
	}
	c.SetList(list, append(entries[:i], entries[i+1:]...))
	return s.store.Save(ctx, c)
}

// Progress counts completed and total entries of one list.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Summarize counts progress per list.
func Summarize(c types.Checklist) map[string]Progress {
	out := make(map[string]Progress, 2)
	for _, list := range []string{types.ListTodo, types.ListPacking} {
		var p Progress
		for _, e := range c.List(list) {
			p.Total++
			if e.Completed {
				p.Done++
			}
		}
		out[list] = p
	}
	return out
}

// ByCategory groups packing entries by category in types.PackingCategories
// order. Empty categories are left out.
func ByCategory(packing []types.ChecklistEntry) []Group {
	var out []Group
	for _, cat := range types.PackingCategories {
		var g Group
		for _, e := range packing {
			c := e.Category
			if c == "" {
				c = types.DefaultPackingCategory
			}
			if c == cat {
				g.Entries = append(g.Entries, e)
			}
		}
		if len(g.Entries) > 0 {
			g.Category = cat
			out = append(out, g)
		}
	}
	return out
}

// Group is the packing entries of one category.
type Group struct {
	Category string                 `json:"category"`
	Entries  []types.ChecklistEntry `json:"entries"`
}

func checkList(list string) error {
	if !types.ValidList(list) {
		return types.Invalid("list", "expected todo or packing")
	}
	return nil
}

func entryCategory(list, category string) (string, error) {
	if list == types.ListTodo {
		return "", nil
	}
	if category == "" {
		return types.DefaultPackingCategory, nil
	}
	if !types.ValidPackingCategory(category) {
		return "", types.Invalid("category", "expected one of "+strings.Join(types.PackingCategories, ", "))
	}
	return category, nil
}

func indexOf(entries []types.ChecklistEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
