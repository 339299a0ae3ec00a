package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistNormalize(t *testing.T) {
	c := Checklist{
		Todo:    []ChecklistEntry{{ID: "1", Text: "  Exchange currency ", Category: "衣物"}},
		Packing: []ChecklistEntry{{ID: "1", Text: "Socks"}, {ID: "2", Text: "Passport", Category: "文件"}},
	}
	c.Normalize()
	assert.Equal(t, ChecklistEntry{ID: "1", Text: "Exchange currency"}, c.Todo[0])
	assert.Equal(t, DefaultPackingCategory, c.Packing[0].Category)
	assert.Equal(t, "文件", c.Packing[1].Category)
}

func TestChecklistValidate(t *testing.T) {
	tests := []struct {
		name  string
		c     Checklist
		field string
	}{
		{name: "empty", c: Checklist{}},
		{name: "same id in both lists", c: Checklist{
			Todo:    []ChecklistEntry{{ID: "1", Text: "a"}},
			Packing: []ChecklistEntry{{ID: "1", Text: "b"}},
		}},
		{name: "missing id", c: Checklist{Todo: []ChecklistEntry{{Text: "a"}}}, field: "todo.id"},
		{name: "duplicate id", c: Checklist{Todo: []ChecklistEntry{{ID: "1", Text: "a"}, {ID: "1", Text: "b"}}}, field: "todo.id"},
		{name: "blank text", c: Checklist{Packing: []ChecklistEntry{{ID: "1", Text: " "}}}, field: "packing.text"},
		{name: "unknown category", c: Checklist{Packing: []ChecklistEntry{{ID: "1", Text: "a", Category: "snacks"}}}, field: "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestChecklistCloneAndLists(t *testing.T) {
	c := Checklist{Todo: []ChecklistEntry{{ID: "1", Text: "a"}}}
	cp := c.Clone()
	cp.Todo[0].Text = "changed"
	assert.Equal(t, "a", c.Todo[0].Text)
	assert.NotNil(t, cp.Packing)

	cp.SetList(ListPacking, []ChecklistEntry{{ID: "9", Text: "x"}})
	assert.Len(t, cp.List(ListPacking), 1)
	assert.Nil(t, cp.List("souvenirs"))
	assert.True(t, ValidList(ListTodo))
	assert.False(t, ValidList("souvenirs"))
	assert.True(t, ValidPackingCategory("3C產品"))
}
