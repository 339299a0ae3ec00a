package types

import "strings"

// ItemType classifies an itinerary item. The set is closed.
type ItemType string

// Item types.
const (
	ItemTransport     ItemType = "transport"
	ItemFood          ItemType = "food"
	ItemSight         ItemType = "sight"
	ItemAccommodation ItemType = "accommodation"
	ItemActivity      ItemType = "activity"
	ItemShopping      ItemType = "shopping"
)

// DefaultItemType is used when a new item is created without a type.
const DefaultItemType = ItemSight

// validItemTypes is the set of recognized item types.
var validItemTypes = map[ItemType]bool{
	ItemTransport:     true,
	ItemFood:          true,
	ItemSight:         true,
	ItemAccommodation: true,
	ItemActivity:      true,
	ItemShopping:      true,
}

// ItemTypes lists every item type in display order.
var ItemTypes = []ItemType{
	ItemSight,
	ItemFood,
	ItemShopping,
	ItemTransport,
	ItemAccommodation,
	ItemActivity,
}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return validItemTypes[t]
}

// ParseItemType normalizes s and returns the matching ItemType.
// Returns ErrInvalidItemType for anything outside the closed set.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidItemType
	}
	return t, nil
}

// ItineraryItem is one scheduled activity on a trip day.
//
// Day and SortOrder are owned by the itinerary core; every other field is
// payload that moves and reorders carry through untouched. Ordering within a
// day is by SortOrder only; Time is display text.
type ItineraryItem struct {
	ID        string   `json:"id" bson:"_id"`
	Day       int      `json:"day" bson:"day"`
	SortOrder int      `json:"sortOrder" bson:"sortOrder"`
	Time      string   `json:"time" bson:"time"`
	Type      ItemType `json:"type" bson:"type"`
	Title     string   `json:"title" bson:"title"`

	Description   string   `json:"description,omitempty" bson:"description,omitempty"`
	Location      string   `json:"location,omitempty" bson:"location,omitempty"`
	KoreanAddress string   `json:"koreanAddress,omitempty" bson:"koreanAddress,omitempty"`
	NaverMapLink  string   `json:"naverMapLink,omitempty" bson:"naverMapLink,omitempty"`
	Notes         string   `json:"notes,omitempty" bson:"notes,omitempty"`
	Cost          string   `json:"cost,omitempty" bson:"cost,omitempty"`
	IsReservation bool     `json:"isReservation,omitempty" bson:"isReservation,omitempty"`
	Highlight     []string `json:"highlight,omitempty" bson:"highlight,omitempty"`
	Images        []string `json:"images,omitempty" bson:"images,omitempty"`

	// Details holds structured extras (ticket, transfer and booking info,
	// menu recommendations, shopping lists) that the core never inspects.
	Details map[string]any `json:"details,omitempty" bson:"details,omitempty"`
}

// Clone returns a copy of the item that shares no slices or maps with it.
func (it ItineraryItem) Clone() ItineraryItem {
	out := it
	if it.Highlight != nil {
		out.Highlight = append([]string(nil), it.Highlight...)
	}
	if it.Images != nil {
		out.Images = append([]string(nil), it.Images...)
	}
	if it.Details != nil {
		out.Details = cloneMap(it.Details)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		cp := make([]any, len(x))
		for i := range x {
			cp[i] = cloneValue(x[i])
		}
		return cp
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}

// IDs returns the ids of items in slice order.
func IDs(items []ItineraryItem) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}
