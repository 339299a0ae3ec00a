package docstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// expenseDoc is the stored form of an expense. The amount is a decimal
// string so no precision is lost to BSON doubles.
type expenseDoc struct {
	ID            string `bson:"_id"`
	Title         string `bson:"title"`
	Date          string `bson:"date"`
	PaymentMethod string `bson:"paymentMethod"`
	Amount        string `bson:"amount"`
	Currency      string `bson:"currency"`
	TaxRefund     string `bson:"taxRefund"`
}

func toDoc(e types.Expense) expenseDoc {
	return expenseDoc{
		ID:            e.ID,
		Title:         e.Title,
		Date:          e.Date,
		PaymentMethod: e.PaymentMethod,
		Amount:        e.Amount.String(),
		Currency:      e.Currency,
		TaxRefund:     e.TaxRefund,
	}
}

func (d expenseDoc) expense() (types.Expense, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return types.Expense{}, fmt.Errorf("expense %s: amount %q: %w", d.ID, d.Amount, err)
	}
	return types.Expense{
		ID:            d.ID,
		Title:         d.Title,
		Date:          d.Date,
		PaymentMethod: d.PaymentMethod,
		Amount:        amount,
		Currency:      d.Currency,
		TaxRefund:     d.TaxRefund,
	}, nil
}

// Expenses implements types.ExpenseStore on the expenses collection.
type Expenses struct {
	backend *Backend
}

var _ types.ExpenseStore = (*Expenses)(nil)

// List returns the ledger ordered by date descending, then id. Documents
// with an unreadable amount are skipped.
func (s *Expenses) List(ctx context.Context) ([]types.Expense, error) {
	coll, err := s.backend.collection(expensesCollection)
	if err != nil {
		return nil, types.Unavailable("list expenses", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, types.Unavailable("list expenses", err)
	}
	var docs []expenseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, types.Unavailable("list expenses", err)
	}
	out := make([]types.Expense, 0, len(docs))
	for _, d := range docs {
		e, err := d.expense()
		if err != nil {
			s.backend.log.Warn("skipping expense", "id", d.ID, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Put creates the expense when e.ID is empty, otherwise replaces it.
// Returns ErrNotFound when updating an id that does not exist.
func (s *Expenses) Put(ctx context.Context, e types.Expense) (string, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	coll, err := s.backend.collection(expensesCollection)
	if err != nil {
		return "", types.WriteFailed("put expense", err)
	}

	if e.ID == "" {
		e.ID = newID()
		if _, err := coll.InsertOne(ctx, toDoc(e)); err != nil {
			return "", types.WriteFailed("put expense", err)
		}
		return e.ID, nil
	}
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": e.ID}, toDoc(e))
	if err != nil {
		return "", types.WriteFailed("put expense", err)
	}
	if res.MatchedCount == 0 {
		return "", types.ErrNotFound
	}
	return e.ID, nil
}

// Delete removes the expense. A missing id is not an error.
func (s *Expenses) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	coll, err := s.backend.collection(expensesCollection)
	if err != nil {
		return types.WriteFailed("delete expense", err)
	}
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return types.WriteFailed("delete expense", err)
	}
	return nil
}
