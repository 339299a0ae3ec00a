package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// loadAllJSONL reads items.jsonl and expenses.jsonl from dataDir and inserts
// their records into a fresh database. Loading is transactional: all succeed
// or the database remains empty. Malformed lines and records without an id
// are skipped; unknown fields are ignored.
//
// Items are renumbered per day on the way in, so a hand-edited or damaged
// items.jsonl still yields dense days. The returned count reports how many
// items changed position.
func loadAllJSONL(ctx context.Context, db *sql.DB, dataDir string) (repaired int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	itemRecords, err := readJSONL(filepath.Join(dataDir, itemsJSONL))
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", itemsJSONL, err)
	}
	repaired, err = loadItems(ctx, tx, itemRecords)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", itemsJSONL, err)
	}

	expenseRecords, err := readJSONL(filepath.Join(dataDir, expensesJSONL))
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", expensesJSONL, err)
	}
	if err := loadExpenses(ctx, tx, expenseRecords); err != nil {
		return 0, fmt.Errorf("loading %s: %w", expensesJSONL, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return repaired, nil
}

// loadItems decodes item records, keeps the last record per id, renumbers
// every day densely and inserts the result.
func loadItems(ctx context.Context, tx *sql.Tx, records []json.RawMessage) (int, error) {
	byID := make(map[string]int)
	var items []types.ItineraryItem
	for _, rec := range records {
		var it types.ItineraryItem
		if err := json.Unmarshal(rec, &it); err != nil {
			continue
		}
		if it.ID == "" || it.Day < 1 {
			continue
		}
		if i, ok := byID[it.ID]; ok {
			items[i] = it
			continue
		}
		byID[it.ID] = len(items)
		items = append(items, it)
	}

	repaired := 0
	for _, bucket := range byDay(items) {
		types.SortDay(bucket)
		for i := range bucket {
			if bucket[i].SortOrder != i {
				repaired++
				bucket[i].SortOrder = i
			}
			if err := insertItem(ctx, tx, bucket[i]); err != nil {
				return 0, err
			}
		}
	}
	return repaired, nil
}

func byDay(items []types.ItineraryItem) map[int][]types.ItineraryItem {
	days := make(map[int][]types.ItineraryItem)
	for _, it := range items {
		days[it.Day] = append(days[it.Day], it)
	}
	return days
}

// loadExpenses inserts expense records. Records that fail validation are
// skipped.
func loadExpenses(ctx context.Context, tx *sql.Tx, records []json.RawMessage) error {
	stmt, err := tx.PrepareContext(ctx, insertExpenseSQL)
	if err != nil {
		return fmt.Errorf("preparing expense insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var e types.Expense
		if err := json.Unmarshal(rec, &e); err != nil {
			continue
		}
		e.Normalize()
		if e.ID == "" || e.Validate() != nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, expenseArgs(e)...); err != nil {
			continue
		}
	}
	return nil
}
