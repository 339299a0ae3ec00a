package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func TestExpenses_PutListDelete(t *testing.T) {
	ctx := context.Background()
	b, _ := attachTemp(t)
	store, err := b.Expenses()
	require.NoError(t, err)

	seeded, err := store.List(ctx)
	require.NoError(t, err)

	id, err := store.Put(ctx, types.Expense{
		Title:         "Hanbok rental",
		Date:          "2026-03-30",
		PaymentMethod: "Card",
		Amount:        decimal.RequireFromString("35000.50"),
		Currency:      "krw",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(seeded)+1)
	first := all[0]
	assert.Equal(t, id, first.ID, "newest date sorts first")
	assert.Equal(t, "KRW", first.Currency)
	assert.Equal(t, types.PaymentCard, first.PaymentMethod)
	assert.True(t, decimal.RequireFromString("35000.5").Equal(first.Amount))

	first.Title = "Hanbok rental (2h)"
	gotID, err := store.Put(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, id))

	all, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(seeded))
}

func TestExpenses_PutMissingIDIsNotFound(t *testing.T) {
	b, _ := attachTemp(t)
	store, err := b.Expenses()
	require.NoError(t, err)

	_, err = store.Put(context.Background(), types.Expense{
		ID: "nope", Title: "Taxi", Date: "2026-03-25", PaymentMethod: types.PaymentCash,
		Amount: decimal.NewFromInt(8000), Currency: "KRW",
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestExpenses_PutValidates(t *testing.T) {
	b, _ := attachTemp(t)
	store, err := b.Expenses()
	require.NoError(t, err)

	_, err = store.Put(context.Background(), types.Expense{Title: "Taxi", Date: "yesterday"})
	assert.True(t, types.IsValidation(err))
}
