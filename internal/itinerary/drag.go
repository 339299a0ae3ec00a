package itinerary

import (
	"errors"
	"fmt"
)

// Phase is the state of a drag gesture.
type Phase int

// Gesture phases. Reordered, Deleted and Cancelled are terminal.
const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseReordered
	PhaseDeleted
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseReordered:
		return "reordered"
	case PhaseDeleted:
		return "deleted"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Gesture errors.
var (
	ErrDragActive  = errors.New("a drag gesture is already in progress")
	ErrNotDragging = errors.New("no drag gesture in progress")
)

// DropTarget is what the pointer is over: an item of the day or the trash
// zone. After places the dragged item behind ItemID instead of in front of it.
type DropTarget struct {
	ItemID string `json:"itemId,omitempty"`
	After  bool   `json:"after,omitempty"`
	Trash  bool   `json:"trash,omitempty"`
}

// TrashTarget is the trash drop zone.
func TrashTarget() DropTarget { return DropTarget{Trash: true} }

// ItemTarget places the dragged item before id, or after it when after is set.
func ItemTarget(id string, after bool) DropTarget { return DropTarget{ItemID: id, After: after} }

func (t DropTarget) empty() bool { return !t.Trash && t.ItemID == "" }

// OutcomeKind is the result of a finished gesture.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeReordered OutcomeKind = "reordered"
	OutcomeDeleted   OutcomeKind = "deleted"
)

// Outcome is what a gesture produced. Target is meaningful for reorders only.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Day      int         `json:"day"`
	ActiveID string      `json:"activeId"`
	Target   DropTarget  `json:"target"`
}

// Drag tracks one gesture through Idle, Dragging and a terminal phase.
// It is not safe for concurrent use; each pointer owns its own Drag.
type Drag struct {
	phase  Phase
	day    int
	active string
	over   DropTarget
}

// Phase returns the current phase.
func (d *Drag) Phase() Phase { return d.phase }

// Over returns the target currently hovered, if any.
func (d *Drag) Over() (DropTarget, bool) { return d.over, !d.over.empty() }

// Start picks up activeID in day.
func (d *Drag) Start(day int, activeID string) error {
	if d.phase != PhaseIdle {
		return fmt.Errorf("%w (phase %s)", ErrDragActive, d.phase)
	}
	d.phase = PhaseDragging
	d.day = day
	d.active = activeID
	d.over = DropTarget{}
	return nil
}

// Hover records what the pointer is over. hits are every target intersecting
// the dragged item; the trash zone wins over any item. No hits clears the
// target.
func (d *Drag) Hover(hits ...DropTarget) error {
	if d.phase != PhaseDragging {
		return ErrNotDragging
	}
	d.over = pickTarget(hits)
	return nil
}

// pickTarget resolves simultaneous hits: trash first, then the first item.
func pickTarget(hits []DropTarget) DropTarget {
	var first DropTarget
	for _, h := range hits {
		if h.Trash {
			return TrashTarget()
		}
		if first.empty() && h.ItemID != "" {
			first = h
		}
	}
	return first
}

// Leave clears the hovered target.
func (d *Drag) Leave() error {
	if d.phase != PhaseDragging {
		return ErrNotDragging
	}
	d.over = DropTarget{}
	return nil
}

// End releases the item and returns the outcome.
func (d *Drag) End() (Outcome, error) {
	if d.phase != PhaseDragging {
		return Outcome{}, ErrNotDragging
	}
	out := Outcome{Day: d.day, ActiveID: d.active}
	switch {
	case d.over.Trash:
		out.Kind = OutcomeDeleted
		d.phase = PhaseDeleted
	case d.over.ItemID != "" && d.over.ItemID != d.active:
		out.Kind = OutcomeReordered
		out.Target = d.over
		d.phase = PhaseReordered
	default:
		out.Kind = OutcomeCancelled
		d.phase = PhaseCancelled
	}
	return out, nil
}

// Cancel aborts the gesture.
func (d *Drag) Cancel() (Outcome, error) {
	if d.phase != PhaseDragging {
		return Outcome{}, ErrNotDragging
	}
	d.phase = PhaseCancelled
	return Outcome{Kind: OutcomeCancelled, Day: d.day, ActiveID: d.active}, nil
}

// Reset returns a finished gesture to Idle.
func (d *Drag) Reset() {
	*d = Drag{}
}

// resolve runs a complete gesture: pick up activeID, hover hits, release.
func resolve(day int, activeID string, hits ...DropTarget) Outcome {
	var d Drag
	_ = d.Start(day, activeID)
	_ = d.Hover(hits...)
	out, _ := d.End()
	return out
}
