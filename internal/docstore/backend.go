// Package docstore implements the document tripdeck backend on MongoDB.
//
// Items live in the "items" collection keyed by _id with flat day and
// sortOrder fields; expenses live in "expenses" with the amount stored as a
// decimal string. The pre-trip checklist is the "lists" document of
// "pre_trip_data". A day is renumbered with one ordered bulk write, run in a
// session transaction when the deployment supports them.
package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Collection names.
const (
	itemsCollection    = "items"
	expensesCollection = "expenses"
)

// defaultConnectTimeout bounds Attach when Config.Timeout is zero.
const defaultConnectTimeout = 10 * time.Second

// Backend implements types.Backend on MongoDB.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	client   *mongo.Client
	db       *mongo.Database
	log      *slog.Logger

	// noTxn is set once the server has refused a transaction.
	noTxn atomic.Bool

	items     *Items
	expenses  *Expenses
	checklist *Checklist
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(log *slog.Logger) *Backend {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	b := &Backend{log: log}
	b.items = &Items{backend: b}
	b.expenses = &Expenses{backend: b}
	b.checklist = &Checklist{backend: b}
	return b
}

// Attach connects to config.MongoURI, pings the server and makes sure the
// collection indexes exist. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(config.MongoURI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return types.Unavailable("connect mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return types.Unavailable("ping mongo", err)
	}
	db := client.Database(config.Database())
	if err := ensureIndexes(ctx, db); err != nil {
		client.Disconnect(context.Background())
		return err
	}

	b.client = client
	b.db = db
	b.noTxn.Store(false)
	b.attached = true
	b.log.Debug("mongo backend attached", "database", config.Database())
	return nil
}

// ensureIndexes creates the read-path indexes. The (day, sortOrder) index is
// not unique: the non-transactional reorder path may leave a transient
// duplicate that the Day Index tie-break tolerates.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(itemsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "day", Value: 1}, {Key: "sortOrder", Value: 1}},
		Options: options.Index().SetName("day_sortOrder"),
	})
	if err != nil {
		return fmt.Errorf("creating items index: %w", err)
	}
	_, err = db.Collection(expensesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("date_desc"),
	})
	if err != nil {
		return fmt.Errorf("creating expenses index: %w", err)
	}
	return nil
}

// Detach disconnects the client. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	client := b.client
	b.client, b.db = nil, nil
	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
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

// collection returns the named collection of the attached database.
func (b *Backend) collection(name string) (*mongo.Collection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db.Collection(name), nil
}

func (b *Backend) session() (mongo.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.client.StartSession()
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
