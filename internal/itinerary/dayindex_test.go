package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func TestProject(t *testing.T) {
	items := []types.ItineraryItem{
		{ID: "b2", Day: 2, SortOrder: 1},
		{ID: "a1", Day: 1, SortOrder: 0},
		{ID: "z2", Day: 2, SortOrder: 0},
		{ID: "a2", Day: 2, SortOrder: 0},
	}
	idx := Project(items)

	assert.Equal(t, []int{1, 2}, idx.Days())
	assert.Equal(t, []string{"a1"}, types.IDs(idx[1]))
	assert.Equal(t, []string{"a2", "z2", "b2"}, types.IDs(idx[2]), "equal sortOrder breaks ties by id")
	assert.Equal(t, "b2", items[0].ID, "input is not reordered")
}

func TestProjectEmpty(t *testing.T) {
	idx := Project(nil)
	assert.Empty(t, idx.Days())
	assert.Empty(t, idx.Bucket(1))
}

func TestCheckDense(t *testing.T) {
	tests := []struct {
		name  string
		items []types.ItineraryItem
		ok    bool
	}{
		{name: "dense days", items: append(bucketOf(1, "a", "b"), bucketOf(2, "c")...), ok: true},
		{name: "empty", items: nil, ok: true},
		{name: "gap", items: []types.ItineraryItem{{ID: "a", Day: 1, SortOrder: 0}, {ID: "b", Day: 1, SortOrder: 2}}},
		{name: "duplicate", items: []types.ItineraryItem{{ID: "a", Day: 1, SortOrder: 0}, {ID: "b", Day: 1, SortOrder: 0}}},
		{name: "starts at one", items: []types.ItineraryItem{{ID: "a", Day: 3, SortOrder: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDense(tt.items)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrNotDense)
		})
	}
}

func TestRenumberCopiesDeeply(t *testing.T) {
	in := []types.ItineraryItem{
		{ID: "a", Day: 1, SortOrder: 4, Highlight: []string{"view"}, Details: map[string]any{"ticket": map[string]any{"seat": "12A"}}},
	}
	out := renumber(in)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].SortOrder)

	out[0].Highlight[0] = "changed"
	out[0].Details["ticket"].(map[string]any)["seat"] = "1A"
	assert.Equal(t, 4, in[0].SortOrder)
	assert.Equal(t, "view", in[0].Highlight[0])
	assert.Equal(t, "12A", in[0].Details["ticket"].(map[string]any)["seat"])
}
