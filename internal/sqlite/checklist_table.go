package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// checklistTable implements types.ChecklistStore over the checklist table.
// Each row is one entry; position keeps the list order.
type checklistTable struct {
	backend *Backend
}

var _ types.ChecklistStore = (*checklistTable)(nil)

// checklistRecord is one line of checklist.jsonl.
type checklistRecord struct {
	List string `json:"list"`
	types.ChecklistEntry
}

const insertChecklistSQL = `INSERT INTO checklist (list, position, id, text, completed, category) VALUES (?, ?, ?, ?, ?, ?)`

// Load returns the saved checklist. Returns ErrNotFound until the first Save,
// or until a checklist.jsonl exists in the data directory.
func (t *checklistTable) Load(ctx context.Context) (types.Checklist, error) {
	db, err := t.backend.handle()
	if err != nil {
		return types.Checklist{}, types.Unavailable("load checklist", err)
	}
	defer t.backend.mu.RUnlock()

	if !t.backend.checklistSaved {
		return types.Checklist{}, types.ErrNotFound
	}
	c, err := queryChecklist(ctx, db)
	if err != nil {
		return types.Checklist{}, types.Unavailable("load checklist", err)
	}
	return c, nil
}

func queryChecklist(ctx context.Context, q queryer) (types.Checklist, error) {
	rows, err := q.QueryContext(ctx, "SELECT list, id, text, completed, category FROM checklist ORDER BY list, position")
	if err != nil {
		return types.Checklist{}, fmt.Errorf("querying checklist: %w", err)
	}
	defer rows.Close()

	c := types.Checklist{Todo: []types.ChecklistEntry{}, Packing: []types.ChecklistEntry{}}
	for rows.Next() {
		var list string
		var e types.ChecklistEntry
		if err := rows.Scan(&list, &e.ID, &e.Text, &e.Completed, &e.Category); err != nil {
			return types.Checklist{}, fmt.Errorf("scanning checklist entry: %w", err)
		}
		c.SetList(list, append(c.List(list), e))
	}
	if err := rows.Err(); err != nil {
		return types.Checklist{}, fmt.Errorf("iterating checklist: %w", err)
	}
	return c, nil
}

// Save replaces every row in one transaction, then rewrites checklist.jsonl.
func (t *checklistTable) Save(ctx context.Context, c types.Checklist) error {
	const op = "save checklist"
	if err := c.Validate(); err != nil {
		return err
	}

	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.WriteFailed(op, types.ErrDetached)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.WriteFailed(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM checklist"); err != nil {
		return types.WriteFailed(op, err)
	}
	if err := insertChecklist(ctx, tx, c); err != nil {
		return types.WriteFailed(op, err)
	}
	if err := tx.Commit(); err != nil {
		return types.WriteFailed(op, err)
	}
	if err := persistChecklistJSONL(ctx, b.db, b.dataDir()); err != nil {
		return types.WriteFailed(op, err)
	}
	b.checklistSaved = true
	return nil
}

func insertChecklist(ctx context.Context, tx *sql.Tx, c types.Checklist) error {
	stmt, err := tx.PrepareContext(ctx, insertChecklistSQL)
	if err != nil {
		return fmt.Errorf("preparing checklist insert: %w", err)
	}
	defer stmt.Close()
	for _, list := range []string{types.ListTodo, types.ListPacking} {
		for pos, e := range c.List(list) {
			if _, err := stmt.ExecContext(ctx, list, pos, e.ID, e.Text, e.Completed, e.Category); err != nil {
				return fmt.Errorf("writing checklist entry %s/%s: %w", list, e.ID, err)
			}
		}
	}
	return nil
}

// persistChecklistJSONL writes the to-do entries, then the packing entries,
// to checklist.jsonl.
func persistChecklistJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	c, err := queryChecklist(ctx, db)
	if err != nil {
		return err
	}
	var recs []checklistRecord
	for _, list := range []string{types.ListTodo, types.ListPacking} {
		for _, e := range c.List(list) {
			recs = append(recs, checklistRecord{List: list, ChecklistEntry: e})
		}
	}
	records, err := marshalRecords(recs)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, checklistJSONL), records)
}

// loadChecklistJSONL inserts the entries of checklist.jsonl, if the file
// exists, and reports whether it did. Malformed lines, unknown lists and
// repeated ids are skipped.
func loadChecklistJSONL(ctx context.Context, db *sql.DB, dataDir string) (bool, error) {
	path := filepath.Join(dataDir, checklistJSONL)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("checking %s: %w", checklistJSONL, err)
	}
	records, err := readJSONL(path)
	if err != nil {
		return false, err
	}

	var c types.Checklist
	seen := make(map[string]bool)
	for _, rec := range records {
		var r checklistRecord
		if err := json.Unmarshal(rec, &r); err != nil {
			continue
		}
		key := r.List + "/" + r.ID
		if !types.ValidList(r.List) || r.ID == "" || r.Text == "" || seen[key] {
			continue
		}
		seen[key] = true
		c.SetList(r.List, append(c.List(r.List), r.ChecklistEntry))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning checklist load: %w", err)
	}
	defer tx.Rollback()
	if err := insertChecklist(ctx, tx, c); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing checklist load: %w", err)
	}
	return true, nil
}
