package types

import "errors"

// Backend is a storage backend that serves the item, expense and checklist
// stores.
// Callers attach to a backend, use its stores, and detach when done.
type Backend interface {
	// Attach connects the backend described by config. Returns
	// ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach the stores
	// return ErrDetached.
	Detach() error

	// Items returns the itinerary item store.
	Items() (ItemStore, error)

	// Expenses returns the expense ledger store.
	Expenses() (ExpenseStore, error)

	// Checklist returns the pre-trip checklist store.
	Checklist() (ChecklistStore, error)
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
