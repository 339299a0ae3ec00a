// Package sqlite implements the relational tripdeck backend.
//
// JSONL files in the data directory are the source of truth. On Attach the
// backend builds a fresh SQLite database from them and serves queries from
// it; every committed write rewrites the affected JSONL file atomically.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// dbFile is the SQLite file name inside the data directory.
const dbFile = "tripdeck.db"

// Backend implements types.Backend on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *slog.Logger

	// checklistSaved is false until a checklist has been stored.
	checklistSaved bool

	items     *itemsTable
	expenses  *expensesTable
	checklist *checklistTable
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(log *slog.Logger) *Backend {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	b := &Backend{log: log}
	b.items = &itemsTable{backend: b}
	b.expenses = &expensesTable{backend: b}
	b.checklist = &checklistTable{backend: b}
	return b
}

// Attach creates DataDir if needed, rebuilds the database from the JSONL
// files and seeds the expense ledger on first run.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from scratch.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// One connection keeps transactions and the unique index checks on a
	// single writer.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return err
	}
	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	repaired, err := loadAllJSONL(ctx, db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}
	if repaired > 0 {
		b.log.Warn("renumbered items on load", "count", repaired)
		if err := persistItemsJSONL(ctx, db, dataDir); err != nil {
			db.Close()
			return fmt.Errorf("rewriting %s: %w", itemsJSONL, err)
		}
	}
	checklistSaved, err := loadChecklistJSONL(ctx, db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load %s: %w", checklistJSONL, err)
	}
	seeded, err := seedExpenses(ctx, db, dataDir)
	if err != nil {
		db.Close()
		return err
	}
	if seeded > 0 {
		b.log.Info("seeded expense ledger", "count", seeded)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.checklistSaved = checklistSaved
	b.attached = true
	b.log.Debug("sqlite backend attached", "data_dir", dataDir)
	return nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	b.checklistSaved = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return err
		}
	}
	return nil
}

// Items returns the item store. Returns ErrDetached if not attached.
func (b *Backend) Items() (types.ItemStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.items, nil
}

// Expenses returns the expense store. Returns ErrDetached if not attached.
func (b *Backend) Expenses() (types.ExpenseStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.expenses, nil
}

// Checklist returns the checklist store. Returns ErrDetached if not attached.
func (b *Backend) Checklist() (types.ChecklistStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.checklist, nil
}

// handle read-locks the backend and returns the database. On success the
// caller must release b.mu with RUnlock.
func (b *Backend) handle() (*sql.DB, error) {
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, types.ErrDetached
	}
	return b.db, nil
}

// dataDir returns the attached data directory. Callers hold b.mu.
func (b *Backend) dataDir() string {
	return b.config.DataDir
}

// newID generates a UUID v7 string.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
