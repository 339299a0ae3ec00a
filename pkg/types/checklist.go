package types

import (
	"context"
	"slices"
	"strings"
)

// Checklist list names.
const (
	ListTodo    = "todo"
	ListPacking = "packing"
)

// PackingCategories are the fixed groups of the packing list, in display
// order. Packing entries without a category belong to the last one.
var PackingCategories = []string{"文件", "3C產品", "盥洗/化妝品", "衣物", "其他"}

// DefaultPackingCategory holds packing entries that name no category.
const DefaultPackingCategory = "其他"

// ChecklistEntry is one line of a pre-trip list.
type ChecklistEntry struct {
	ID        string `json:"id" bson:"id"`
	Text      string `json:"text" bson:"text"`
	Completed bool   `json:"completed" bson:"completed"`
	Category  string `json:"category,omitempty" bson:"category,omitempty"`
}

// Checklist is the pre-trip document: a to-do list and a packing list.
type Checklist struct {
	Todo    []ChecklistEntry `json:"todo" bson:"todo"`
	Packing []ChecklistEntry `json:"packing" bson:"packing"`
}

// ValidList reports whether name is a checklist list.
func ValidList(name string) bool {
	return name == ListTodo || name == ListPacking
}

// ValidPackingCategory reports whether c is one of PackingCategories.
func ValidPackingCategory(c string) bool {
	return slices.Contains(PackingCategories, c)
}

// List returns the entries of the named list, or nil for an unknown name.
func (c Checklist) List(name string) []ChecklistEntry {
	switch name {
	case ListTodo:
		return c.Todo
	case ListPacking:
		return c.Packing
	}
	return nil
}

// SetList replaces the entries of the named list. Unknown names are ignored.
func (c *Checklist) SetList(name string, entries []ChecklistEntry) {
	switch name {
	case ListTodo:
		c.Todo = entries
	case ListPacking:
		c.Packing = entries
	}
}

// Clone returns a copy that shares no slices with c. Nil lists come back
// empty.
func (c Checklist) Clone() Checklist {
	return Checklist{
		Todo:    append([]ChecklistEntry{}, c.Todo...),
		Packing: append([]ChecklistEntry{}, c.Packing...),
	}
}

// Normalize trims entry text and files uncategorized packing entries under
// DefaultPackingCategory. To-do entries carry no category.
func (c *Checklist) Normalize() {
	for i := range c.Todo {
		c.Todo[i].Text = strings.TrimSpace(c.Todo[i].Text)
		c.Todo[i].Category = ""
	}
	for i := range c.Packing {
		c.Packing[i].Text = strings.TrimSpace(c.Packing[i].Text)
		if c.Packing[i].Category == "" {
			c.Packing[i].Category = DefaultPackingCategory
		}
	}
}

// Validate checks every entry and returns a *ValidationError naming the first
// bad field.
func (c Checklist) Validate() error {
	for _, name := range []string{ListTodo, ListPacking} {
		seen := make(map[string]bool)
		for _, e := range c.List(name) {
			if e.ID == "" {
				return Invalid(name+".id", "must not be empty")
			}
			if seen[e.ID] {
				return Invalid(name+".id", "duplicate id "+e.ID)
			}
			seen[e.ID] = true
			if strings.TrimSpace(e.Text) == "" {
				return Invalid(name+".text", "must not be empty")
			}
			if name == ListPacking && e.Category != "" && !ValidPackingCategory(e.Category) {
				return Invalid("category", "unknown packing category "+e.Category)
			}
		}
	}
	return nil
}

// ChecklistStore persists the checklist as one document.
type ChecklistStore interface {
	// Load returns the stored checklist. Returns ErrNotFound when none has
	// been saved yet.
	Load(ctx context.Context) (Checklist, error)

	// Save replaces the whole checklist.
	Save(ctx context.Context, c Checklist) error
}
