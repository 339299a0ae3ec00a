package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// itemsTable implements types.ItemStore over the items table. Position
// columns are real columns; everything else lives in the JSON payload.
type itemsTable struct {
	backend *Backend
}

var (
	_ types.ItemStore    = (*itemsTable)(nil)
	_ types.BulkUpserter = (*itemsTable)(nil)
)

// itemPayload is the serialized form of the fields the itinerary core never
// inspects.
type itemPayload struct {
	Time          string         `json:"time"`
	Type          types.ItemType `json:"type"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Location      string         `json:"location,omitempty"`
	KoreanAddress string         `json:"koreanAddress,omitempty"`
	NaverMapLink  string         `json:"naverMapLink,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Cost          string         `json:"cost,omitempty"`
	IsReservation bool           `json:"isReservation,omitempty"`
	Highlight     []string       `json:"highlight,omitempty"`
	Images        []string       `json:"images,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

func encodePayload(it types.ItineraryItem) (string, error) {
	p := itemPayload{
		Time:          it.Time,
		Type:          it.Type,
		Title:         it.Title,
		Description:   it.Description,
		Location:      it.Location,
		KoreanAddress: it.KoreanAddress,
		NaverMapLink:  it.NaverMapLink,
		Notes:         it.Notes,
		Cost:          it.Cost,
		IsReservation: it.IsReservation,
		Highlight:     it.Highlight,
		Images:        it.Images,
		Details:       it.Details,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding payload of %s: %w", it.ID, err)
	}
	return string(data), nil
}

func decodeItem(id string, day, sortOrder int, payload string) (types.ItineraryItem, error) {
	var p itemPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return types.ItineraryItem{}, fmt.Errorf("decoding payload of %s: %w", id, err)
	}
	return types.ItineraryItem{
		ID:            id,
		Day:           day,
		SortOrder:     sortOrder,
		Time:          p.Time,
		Type:          p.Type,
		Title:         p.Title,
		Description:   p.Description,
		Location:      p.Location,
		KoreanAddress: p.KoreanAddress,
		NaverMapLink:  p.NaverMapLink,
		Notes:         p.Notes,
		Cost:          p.Cost,
		IsReservation: p.IsReservation,
		Highlight:     p.Highlight,
		Images:        p.Images,
		Details:       p.Details,
	}, nil
}

const upsertItemSQL = `INSERT INTO items (id, day, sort_order, payload) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET day = excluded.day, sort_order = excluded.sort_order, payload = excluded.payload`

func insertItem(ctx context.Context, tx *sql.Tx, it types.ItineraryItem) error {
	payload, err := encodePayload(it)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertItemSQL, it.ID, it.Day, it.SortOrder, payload); err != nil {
		return fmt.Errorf("writing item %s: %w", it.ID, err)
	}
	return nil
}

// GetAll returns every stored item ordered by day and position.
func (t *itemsTable) GetAll(ctx context.Context) ([]types.ItineraryItem, error) {
	db, err := t.backend.handle()
	if err != nil {
		return nil, types.Unavailable("get all items", err)
	}
	defer t.backend.mu.RUnlock()

	items, err := queryItems(ctx, db, "SELECT id, day, sort_order, payload FROM items ORDER BY day, sort_order, id")
	if err != nil {
		return nil, types.Unavailable("get all items", err)
	}
	return items, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryItems(ctx context.Context, q queryer, query string, args ...any) ([]types.ItineraryItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	items := []types.ItineraryItem{}
	for rows.Next() {
		var id, payload string
		var day, sortOrder int
		if err := rows.Scan(&id, &day, &sortOrder, &payload); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it, err := decodeItem(id, day, sortOrder, payload)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// Upsert inserts or fully replaces the item with the same id.
func (t *itemsTable) Upsert(ctx context.Context, item types.ItineraryItem) error {
	if item.ID == "" {
		return types.ErrInvalidID
	}
	if item.Day < 1 {
		return types.ErrInvalidDay
	}
	return t.write(ctx, "upsert item", func(tx *sql.Tx) (bool, error) {
		return true, insertItem(ctx, tx, item)
	})
}

// UpsertAll writes items in a single transaction.
func (t *itemsTable) UpsertAll(ctx context.Context, items []types.ItineraryItem) error {
	for _, it := range items {
		if it.ID == "" {
			return types.ErrInvalidID
		}
		if it.Day < 1 {
			return types.ErrInvalidDay
		}
	}
	return t.write(ctx, "upsert items", func(tx *sql.Tx) (bool, error) {
		for _, it := range items {
			if err := insertItem(ctx, tx, it); err != nil {
				return false, err
			}
		}
		return len(items) > 0, nil
	})
}

// Delete removes the item. A missing id is not an error.
func (t *itemsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return t.write(ctx, "delete item", func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
		if err != nil {
			return false, fmt.Errorf("deleting item %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// BatchSetSortOrder renumbers day in one transaction.
//
// Changed rows are first parked at -(pos+1), then flipped to pos, so the
// unique (day, sort_order) index never sees two rows at one position.
func (t *itemsTable) BatchSetSortOrder(ctx context.Context, day int, orderedIDs []string) error {
	if day < 1 {
		return types.ErrInvalidDay
	}
	return t.write(ctx, "batch set sort order", func(tx *sql.Tx) (bool, error) {
		current, err := queryItems(ctx, tx,
			"SELECT id, day, sort_order, payload FROM items WHERE day = ?", day)
		if err != nil {
			return false, err
		}
		changes := types.OrderChanges(current, types.MergeOrder(current, orderedIDs))
		if len(changes) == 0 {
			return false, nil
		}

		park, err := tx.PrepareContext(ctx, "UPDATE items SET sort_order = ? WHERE id = ? AND day = ?")
		if err != nil {
			return false, fmt.Errorf("preparing reorder: %w", err)
		}
		defer park.Close()
		for id, pos := range changes {
			if _, err := park.ExecContext(ctx, -(pos + 1), id, day); err != nil {
				return false, fmt.Errorf("parking %s: %w", id, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE items SET sort_order = -sort_order - 1 WHERE day = ? AND sort_order < 0", day); err != nil {
			return false, fmt.Errorf("settling day %d: %w", day, err)
		}
		return true, nil
	})
}

// write runs fn in a transaction under the backend write lock and, when fn
// reports a change, rewrites items.jsonl after the commit.
func (t *itemsTable) write(ctx context.Context, op string, fn func(tx *sql.Tx) (bool, error)) error {
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

	changed, err := fn(tx)
	if err != nil {
		return types.WriteFailed(op, err)
	}
	if err := tx.Commit(); err != nil {
		return types.WriteFailed(op, err)
	}
	if !changed {
		return nil
	}
	if err := persistItemsJSONL(ctx, b.db, b.dataDir()); err != nil {
		return types.WriteFailed(op, err)
	}
	return nil
}

// persistItemsJSONL writes every item to items.jsonl in day, position order.
func persistItemsJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	items, err := queryItems(ctx, db, "SELECT id, day, sort_order, payload FROM items ORDER BY day, sort_order, id")
	if err != nil {
		return err
	}
	records, err := marshalRecords(items)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, itemsJSONL), records)
}
