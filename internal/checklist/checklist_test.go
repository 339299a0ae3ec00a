package checklist

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/internal/memstore"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func initialLists() types.Checklist {
	return types.Checklist{
		Todo: []types.ChecklistEntry{
			{ID: "1", Text: "Check passport expiry"},
			{ID: "2", Text: "Buy travel insurance"},
		},
		Packing: []types.ChecklistEntry{
			{ID: "1", Text: "Passport", Category: "文件"},
			{ID: "2", Text: "Umbrella"},
		},
	}
}

// countingStore records how often the checklist is saved.
type countingStore struct {
	*memstore.Checklist
	mu    sync.Mutex
	saves int
	err   error
}

func (s *countingStore) Save(ctx context.Context, c types.Checklist) error {
	s.mu.Lock()
	s.saves++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Checklist.Save(ctx, c)
}

func newService(t *testing.T) (*Service, *countingStore) {
	t.Helper()
	store := &countingStore{Checklist: &memstore.Checklist{}}
	return New(store, initialLists(), nil), store
}

func TestGetSeedsOnce(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Todo, 2)
	assert.Equal(t, types.DefaultPackingCategory, c.Packing[1].Category, "uncategorized packing entry")

	_, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
}

func TestGetKeepsSavedLists(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	require.NoError(t, store.Checklist.Save(ctx, types.Checklist{}))

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Todo, "an emptied checklist is not reseeded")
	assert.Zero(t, store.saves)
}

func TestGetSeedFailure(t *testing.T) {
	s, store := newService(t)
	store.err = types.WriteFailed("save checklist", assert.AnError)
	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, types.ErrWriteFailed)
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	e, err := s.Add(ctx, types.ListPacking, "  Power bank ", "3C產品")
	require.NoError(t, err)
	assert.Equal(t, "Power bank", e.Text)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Completed)

	todo, err := s.Add(ctx, types.ListTodo, "Book airport pickup", "衣物")
	require.NoError(t, err)
	assert.Empty(t, todo.Category, "to-do entries carry no category")

	plain, err := s.Add(ctx, types.ListPacking, "Socks", "")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPackingCategory, plain.Category)

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, e.ID, c.Packing[2].ID, "appended at the end")
	assert.Equal(t, todo.ID, c.Todo[2].ID)
}

func TestAddValidation(t *testing.T) {
	s, store := newService(t)
	tests := []struct {
		name, list, text, category, field string
	}{
		{name: "unknown list", list: "souvenirs", text: "x", field: "list"},
		{name: "blank text", list: types.ListTodo, text: "   ", field: "text"},
		{name: "unknown category", list: types.ListPacking, text: "Snacks", category: "food", field: "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(context.Background(), tt.list, tt.text, tt.category)
			var ve *types.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Zero(t, store.saves, "nothing written")
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	e, err := s.Toggle(ctx, types.ListTodo, "2")
	require.NoError(t, err)
	assert.True(t, e.Completed)
	e, err = s.Toggle(ctx, types.ListTodo, "2")
	require.NoError(t, err)
	assert.False(t, e.Completed)

	_, err = s.Toggle(ctx, types.ListTodo, "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	e, err := s.Update(ctx, types.ListPacking, "2", Patch{Text: ptr(" Folding umbrella "), Category: ptr("衣物"), Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, types.ChecklistEntry{ID: "2", Text: "Folding umbrella", Category: "衣物", Completed: true}, e)

	_, err = s.Update(ctx, types.ListPacking, "2", Patch{Text: ptr("")})
	assert.True(t, types.IsValidation(err))
	_, err = s.Update(ctx, types.ListTodo, "1", Patch{Category: ptr("文件")})
	assert.True(t, types.IsValidation(err))
	_, err = s.Update(ctx, types.ListTodo, "9", Patch{Completed: ptr(true)})
	assert.ErrorIs(t, err, types.ErrNotFound)

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Folding umbrella", c.Packing[1].Text)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	require.NoError(t, s.Remove(ctx, types.ListTodo, "1"))
	require.NoError(t, s.Remove(ctx, types.ListTodo, "1"), "second remove is a no-op")

	c, err := s.Get(ctx)
	require.NoError(t, err)
	require.Len(t, c.Todo, 1)
	assert.Equal(t, "2", c.Todo[0].ID)
	assert.Len(t, c.Packing, 2, "ids are per list")
}

func TestConcurrentAddsAllLand(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, types.ListTodo, "task", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Todo, 22)
}

func TestSummarizeAndGroup(t *testing.T) {
	c := initialLists()
	c.Todo[0].Completed = true
	c.Packing = append(c.Packing, types.ChecklistEntry{ID: "3", Text: "Charger", Category: "3C產品"})

	assert.Equal(t, map[string]Progress{
		types.ListTodo:    {Done: 1, Total: 2},
		types.ListPacking: {Done: 0, Total: 3},
	}, Summarize(c))

	groups := ByCategory(c.Packing)
	require.Len(t, groups, 3)
	assert.Equal(t, "文件", groups[0].Category)
	assert.Equal(t, "3C產品", groups[1].Category)
	assert.Equal(t, types.DefaultPackingCategory, groups[2].Category)
	assert.Equal(t, "Umbrella", groups[2].Entries[0].Text)
}

func ptr[T any](v T) *T { return &v }
