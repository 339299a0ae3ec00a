package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/tripdeck/internal/seed"
)

// seedExpenses fills the expense ledger with the bundled sample expenses if
// the table is empty (first run) and writes expenses.jsonl. It returns the
// number of rows inserted.
func seedExpenses(ctx context.Context, db *sql.DB, dataDir string) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting expenses: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	ds, err := seed.Default()
	if err != nil {
		return 0, err
	}
	if len(ds.Expenses) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range ds.Expenses {
		e.ID = newID()
		e.Normalize()
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("seed expense %q: %w", e.Title, err)
		}
		if _, err := tx.ExecContext(ctx, insertExpenseSQL, expenseArgs(e)...); err != nil {
			return 0, fmt.Errorf("seeding expense %q: %w", e.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed transaction: %w", err)
	}

	if err := persistExpensesJSONL(ctx, db, dataDir); err != nil {
		return 0, fmt.Errorf("persisting seeded expenses: %w", err)
	}
	return len(ds.Expenses), nil
}
