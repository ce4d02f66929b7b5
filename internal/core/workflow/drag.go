package workflow

import (
	"math"

	"gearguard/internal/core/domain"
)

// DefaultActivationDistance is how far the pointer must travel after
// pointer-down before a press becomes a drag instead of a click.
const DefaultActivationDistance = 8.0

// Point is a pointer position in screen units
type Point struct {
	X float64
	Y float64
}

// DropTarget is what the pointer was released over: a column or a card.
// A card target resolves to the card's current column.
type DropTarget struct {
	Column domain.Stage
	CardID string
}

// DragEnd is the completed gesture handed to the controller
type DragEnd struct {
	CardID string
	Target *DropTarget
}

// DragTracker turns raw pointer events into at most one active drag.
// It is not safe for concurrent use; pointer events arrive on one goroutine.
type DragTracker struct {
	activation float64

	cardID    string
	origin    Point
	pressed   bool
	activated bool
}

// NewDragTracker creates a tracker with the given activation distance;
// non-positive values use DefaultActivationDistance.
func NewDragTracker(activation float64) *DragTracker {
	if activation <= 0 {
		activation = DefaultActivationDistance
	}
	return &DragTracker{activation: activation}
}

// PointerDown arms a drag on a card. Non-draggable cards and presses while
// another drag is in progress are ignored.
func (t *DragTracker) PointerDown(cardID string, draggable bool, p Point) bool {
	if t.pressed || !draggable || cardID == "" {
		return false
	}
	t.cardID = cardID
	t.origin = p
	t.pressed = true
	t.activated = false
	return true
}

// PointerMove reports whether the current press is an active drag
func (t *DragTracker) PointerMove(p Point) bool {
	if !t.pressed {
		return false
	}
	if !t.activated && math.Hypot(p.X-t.origin.X, p.Y-t.origin.Y) >= t.activation {
		t.activated = true
	}
	return t.activated
}

// PointerUp ends the press. It returns a DragEnd only when the press had
// become a drag; a press that never travelled far enough is a click.
func (t *DragTracker) PointerUp(target *DropTarget) (DragEnd, bool) {
	if !t.pressed {
		return DragEnd{}, false
	}
	end := DragEnd{CardID: t.cardID, Target: target}
	wasDrag := t.activated
	t.reset()
	return end, wasDrag
}

// Active reports the card being dragged, if any
func (t *DragTracker) Active() (string, bool) {
	return t.cardID, t.pressed && t.activated
}

// Cancel drops any press in progress
func (t *DragTracker) Cancel() {
	t.reset()
}

func (t *DragTracker) reset() {
	t.cardID = ""
	t.origin = Point{}
	t.pressed = false
	t.activated = false
}

// ResolveDropTarget maps a drop target to a stage on the given board
func ResolveDropTarget(b Board, target *DropTarget) (domain.Stage, bool) {
	if target == nil {
		return "", false
	}
	if target.CardID != "" {
		r, ok := b.Find(target.CardID)
		if !ok {
			return "", false
		}
		return r.Stage, true
	}
	if target.Column.Valid() {
		return target.Column, true
	}
	return "", false
}
