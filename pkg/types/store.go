package types

import (
	"context"
	"errors"
	"fmt"
)

// ItemStore persists itinerary items keyed by id with a (day, sortOrder)
// position. Both the relational and the document backends implement it, and
// the itinerary core is written against this interface only.
type ItemStore interface {
	// GetAll returns every persisted item in no particular order.
	// Returns an error wrapping ErrStoreUnavailable if the medium cannot be read.
	GetAll(ctx context.Context) ([]ItineraryItem, error)

	// Upsert inserts the item if its id is absent, otherwise replaces the
	// stored item with it. Returns an error wrapping ErrWriteFailed on failure.
	Upsert(ctx context.Context, item ItineraryItem) error

	// Delete removes the item with the given id. Deleting a missing id
	// succeeds.
	Delete(ctx context.Context, id string) error

	// BatchSetSortOrder renumbers day so that orderedIDs take positions
	// 0..len-1 in the given order. Ids that do not belong to day are ignored;
	// items of day missing from orderedIDs follow the listed ones in their
	// previous relative order. The change applies fully or not at all.
	BatchSetSortOrder(ctx context.Context, day int, orderedIDs []string) error
}

// BulkUpserter is implemented by item stores that can write many items as
// one unit: either every item is stored or none is.
type BulkUpserter interface {
	UpsertAll(ctx context.Context, items []ItineraryItem) error
}

// ExpenseStore persists the trip's expense ledger.
type ExpenseStore interface {
	// List returns every expense ordered by date descending, then id.
	List(ctx context.Context) ([]Expense, error)

	// Put creates the expense when e.ID is empty and returns the generated
	// id; otherwise it updates the existing expense and returns ErrNotFound
	// if no expense has that id.
	Put(ctx context.Context, e Expense) (string, error)

	// Delete removes the expense. Deleting a missing id succeeds.
	Delete(ctx context.Context, id string) error
}

// Store errors.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrWriteFailed      = errors.New("write failed")
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid entity ID")
	ErrInvalidItemType  = errors.New("invalid item type")
	ErrInvalidDay       = errors.New("invalid day number")
)

// ValidationError reports bad user input for a single field. It never
// reaches a store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Unavailable wraps err so that it matches ErrStoreUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// WriteFailed wraps err so that it matches ErrWriteFailed.
func WriteFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrWriteFailed, err)
}
