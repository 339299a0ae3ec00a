package itinerary

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// FormData is the user's input for creating or editing an item. A nil field
// was not submitted; a non-nil empty string clears an optional field.
type FormData struct {
	Day           *int            `json:"day,omitempty"`
	Time          *string         `json:"time,omitempty"`
	Type          *string         `json:"type,omitempty"`
	Title         *string         `json:"title,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Location      *string         `json:"location,omitempty"`
	KoreanAddress *string         `json:"koreanAddress,omitempty"`
	NaverMapLink  *string         `json:"naverMapLink,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	Cost          *string         `json:"cost,omitempty"`
	IsReservation *bool           `json:"isReservation,omitempty"`
	Highlight     *[]string       `json:"highlight,omitempty"`
	Images        *[]string       `json:"images,omitempty"`
	Details       *map[string]any `json:"details,omitempty"`
}

// Editor turns form input into a complete item ready for Upsert. It keeps no
// state between calls.
type Editor struct {
	newID func() string
}

// NewEditor returns an editor that assigns UUID v7 ids to new items.
func NewEditor() *Editor {
	return &Editor{newID: func() string { return uuid.Must(uuid.NewV7()).String() }}
}

// Prepare validates form and builds the item to persist.
//
// With existing == nil a new item is created at the end of form.Day, which
// holds dayLen items. Otherwise existing is edited: its id, day and sortOrder
// are kept, submitted fields overwrite and absent fields keep their value.
// Validation failures are *types.ValidationError and nothing is built.
func (e *Editor) Prepare(form FormData, existing *types.ItineraryItem, dayLen int) (types.ItineraryItem, error) {
	var it types.ItineraryItem
	if existing != nil {
		it = existing.Clone()
		if form.Day != nil && *form.Day != existing.Day {
			return types.ItineraryItem{}, types.Invalid("day", "items cannot change day")
		}
	} else {
		if form.Day == nil || *form.Day < 1 {
			return types.ItineraryItem{}, types.Invalid("day", "must be 1 or greater")
		}
		it = types.ItineraryItem{
			ID:        e.newID(),
			Day:       *form.Day,
			SortOrder: dayLen,
			Type:      types.DefaultItemType,
		}
	}

	switch {
	case form.Title != nil:
		title := strings.TrimSpace(*form.Title)
		if title == "" {
			return types.ItineraryItem{}, types.Invalid("title", "must not be empty")
		}
		it.Title = title
	case existing == nil || strings.TrimSpace(it.Title) == "":
		return types.ItineraryItem{}, types.Invalid("title", "must not be empty")
	}

	if form.Type != nil {
		t, err := types.ParseItemType(*form.Type)
		if err != nil {
			return types.ItineraryItem{}, types.Invalid("type", "unknown item type "+strings.TrimSpace(*form.Type))
		}
		it.Type = t
	}

	setString(&it.Time, form.Time)
	setString(&it.Description, form.Description)
	setString(&it.Location, form.Location)
	setString(&it.KoreanAddress, form.KoreanAddress)
	setString(&it.NaverMapLink, form.NaverMapLink)
	setString(&it.Notes, form.Notes)
	setString(&it.Cost, form.Cost)
	if form.IsReservation != nil {
		it.IsReservation = *form.IsReservation
	}
	setList(&it.Highlight, form.Highlight)
	setList(&it.Images, form.Images)
	if form.Details != nil {
		if len(*form.Details) == 0 {
			it.Details = nil
		} else {
			it.Details = types.ItineraryItem{Details: *form.Details}.Clone().Details
		}
	}
	return it, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// setList replaces dst with the non-blank entries of v.
func setList(dst *[]string, v *[]string) {
	if v == nil {
		return
	}
	var out []string
	for _, s := range *v {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}
