package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragReorder(t *testing.T) {
	var d Drag
	require.Equal(t, PhaseIdle, d.Phase())
	require.NoError(t, d.Start(1, "A"))
	assert.Equal(t, PhaseDragging, d.Phase())

	require.NoError(t, d.Hover(ItemTarget("C", false)))
	over, ok := d.Over()
	require.True(t, ok)
	assert.Equal(t, "C", over.ItemID)

	out, err := d.End()
	require.NoError(t, err)
	assert.Equal(t, Outcome{Kind: OutcomeReordered, Day: 1, ActiveID: "A", Target: ItemTarget("C", false)}, out)
	assert.Equal(t, PhaseReordered, d.Phase())
}

func TestDragTrashWinsOverItems(t *testing.T) {
	var d Drag
	require.NoError(t, d.Start(2, "B"))
	require.NoError(t, d.Hover(ItemTarget("C", false), TrashTarget(), ItemTarget("D", true)))

	out, err := d.End()
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, out.Kind)
	assert.Equal(t, "B", out.ActiveID)
	assert.Equal(t, PhaseDeleted, d.Phase())
}

func TestDragCancelledOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		moves func(d *Drag)
	}{
		{name: "released over nothing", moves: func(d *Drag) {}},
		{name: "released over itself", moves: func(d *Drag) { d.Hover(ItemTarget("A", false)) }},
		{name: "left the target", moves: func(d *Drag) {
			d.Hover(ItemTarget("B", false))
			d.Leave()
		}},
		{name: "empty hit list clears", moves: func(d *Drag) {
			d.Hover(TrashTarget())
			d.Hover()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Drag
			require.NoError(t, d.Start(1, "A"))
			tt.moves(&d)
			out, err := d.End()
			require.NoError(t, err)
			assert.Equal(t, OutcomeCancelled, out.Kind)
			assert.Equal(t, PhaseCancelled, d.Phase())
		})
	}
}

func TestDragCancel(t *testing.T) {
	var d Drag
	require.NoError(t, d.Start(1, "A"))
	require.NoError(t, d.Hover(TrashTarget()))
	out, err := d.Cancel()
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, out.Kind)
}

func TestDragPhaseErrors(t *testing.T) {
	var d Drag
	assert.ErrorIs(t, d.Hover(TrashTarget()), ErrNotDragging)
	assert.ErrorIs(t, d.Leave(), ErrNotDragging)
	_, err := d.End()
	assert.ErrorIs(t, err, ErrNotDragging)

	require.NoError(t, d.Start(1, "A"))
	assert.ErrorIs(t, d.Start(1, "B"), ErrDragActive)

	_, err = d.End()
	require.NoError(t, err)
	assert.ErrorIs(t, d.Start(1, "B"), ErrDragActive, "terminal phases need Reset")

	d.Reset()
	assert.NoError(t, d.Start(1, "B"))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "dragging", PhaseDragging.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
