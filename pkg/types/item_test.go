package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ItemType
		wantErr error
	}{
		{name: "exact match", input: "food", want: ItemFood},
		{name: "mixed case and spaces", input: "  Accommodation ", want: ItemAccommodation},
		{name: "unknown value", input: "museum", wantErr: ErrInvalidItemType},
		{name: "empty", input: "", wantErr: ErrInvalidItemType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemType(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItemTypesAreAllValid(t *testing.T) {
	assert.Len(t, ItemTypes, len(validItemTypes))
	for _, it := range ItemTypes {
		assert.True(t, it.Valid(), it)
	}
	assert.True(t, DefaultItemType.Valid())
}

func TestItineraryItemClone(t *testing.T) {
	orig := ItineraryItem{
		ID:        "d1-1",
		Day:       1,
		SortOrder: 1,
		Title:     "Flight",
		Images:    []string{"a.jpg"},
		Highlight: []string{"Must Eat"},
		Details: map[string]any{
			"ticketInfo": map[string]any{"flight": "BR170"},
			"steps":      []any{"check in", "security"},
		},
	}

	cp := orig.Clone()
	assert.Equal(t, orig, cp)

	cp.Images[0] = "b.jpg"
	cp.Highlight[0] = "Must Buy"
	cp.Details["ticketInfo"].(map[string]any)["flight"] = "KE692"
	cp.Details["steps"].([]any)[0] = "board"

	assert.Equal(t, "a.jpg", orig.Images[0])
	assert.Equal(t, "Must Eat", orig.Highlight[0])
	assert.Equal(t, "BR170", orig.Details["ticketInfo"].(map[string]any)["flight"])
	assert.Equal(t, "check in", orig.Details["steps"].([]any)[0])
}

func TestValidationError(t *testing.T) {
	err := Invalid("title", "must not be empty")
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "invalid title: must not be empty")
	assert.EqualError(t, &ValidationError{Field: "type"}, "invalid type")
	assert.False(t, IsValidation(ErrWriteFailed))
}

func TestWrappedStoreErrors(t *testing.T) {
	cause := assert.AnError
	err := Unavailable("get all", cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)

	err = WriteFailed("upsert", cause)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, err, cause)
}
