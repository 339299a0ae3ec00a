package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// expensesTable implements types.ExpenseStore. Amounts are stored as decimal
// strings so no precision is lost in SQLite's REAL type.
type expensesTable struct {
	backend *Backend
}

var _ types.ExpenseStore = (*expensesTable)(nil)

const (
	insertExpenseSQL = `INSERT INTO expenses (id, title, date, payment_method, amount, currency, tax_refund)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	updateExpenseSQL = `UPDATE expenses SET title = ?, date = ?, payment_method = ?, amount = ?, currency = ?, tax_refund = ?
WHERE id = ?`
	selectExpensesSQL = `SELECT id, title, date, payment_method, amount, currency, tax_refund
FROM expenses ORDER BY date DESC, id ASC`
)

func expenseArgs(e types.Expense) []any {
	return []any{e.ID, e.Title, e.Date, e.PaymentMethod, e.Amount.String(), e.Currency, e.TaxRefund}
}

// List returns every expense, newest date first.
func (t *expensesTable) List(ctx context.Context) ([]types.Expense, error) {
	db, err := t.backend.handle()
	if err != nil {
		return nil, types.Unavailable("list expenses", err)
	}
	defer t.backend.mu.RUnlock()

	expenses, err := queryExpenses(ctx, db)
	if err != nil {
		return nil, types.Unavailable("list expenses", err)
	}
	return expenses, nil
}

func queryExpenses(ctx context.Context, q queryer) ([]types.Expense, error) {
	rows, err := q.QueryContext(ctx, selectExpensesSQL)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := []types.Expense{}
	for rows.Next() {
		var e types.Expense
		var amount string
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.PaymentMethod, &amount, &e.Currency, &e.TaxRefund); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing amount of %s: %w", e.ID, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}
	return expenses, nil
}

// Put creates the expense when e.ID is empty, otherwise updates it.
// Returns ErrNotFound when updating an id that does not exist.
func (t *expensesTable) Put(ctx context.Context, e types.Expense) (string, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}

	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return "", types.WriteFailed("put expense", types.ErrDetached)
	}

	create := e.ID == ""
	if create {
		e.ID = newID()
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return "", types.WriteFailed("put expense", err)
	}
	defer tx.Rollback()

	if create {
		if _, err := tx.ExecContext(ctx, insertExpenseSQL, expenseArgs(e)...); err != nil {
			return "", types.WriteFailed("put expense", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, updateExpenseSQL,
			e.Title, e.Date, e.PaymentMethod, e.Amount.String(), e.Currency, e.TaxRefund, e.ID)
		if err != nil {
			return "", types.WriteFailed("put expense", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return "", types.ErrNotFound
		}
	}
	if err := tx.Commit(); err != nil {
		return "", types.WriteFailed("put expense", err)
	}
	if err := persistExpensesJSONL(ctx, b.db, b.dataDir()); err != nil {
		return "", types.WriteFailed("put expense", err)
	}
	return e.ID, nil
}

// Delete removes the expense. A missing id is not an error.
func (t *expensesTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.WriteFailed("delete expense", types.ErrDetached)
	}

	res, err := b.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return types.WriteFailed("delete expense", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if err := persistExpensesJSONL(ctx, b.db, b.dataDir()); err != nil {
		return types.WriteFailed("delete expense", err)
	}
	return nil
}

// persistExpensesJSONL writes the whole ledger to expenses.jsonl.
func persistExpensesJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	expenses, err := queryExpenses(ctx, db)
	if err != nil {
		return err
	}
	records, err := marshalRecords(expenses)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, expensesJSONL), records)
}
