package overlay

import (
	"time"

	"github.com/pmorrow/svgdeck/internal/annotation"
)

// dragSlop is the pointer travel in pixels below which a gesture still
// counts as a plain click.
const dragSlop = 3

// DragSession tracks one pointer-down-to-release gesture on a note
// chip. Moves update the on-screen position only; the store is written
// exactly once, at release.
type DragSession struct {
	created           string
	startX, startY    float64
	noteLeft, noteTop float64
	moved             bool
}

// BeginDrag starts a gesture at the pointer coordinates over the note
// chip currently placed at (noteLeft, noteTop).
func BeginDrag(created string, pointerX, pointerY, noteLeft, noteTop float64) *DragSession {
	return &DragSession{
		created:  created,
		startX:   pointerX,
		startY:   pointerY,
		noteLeft: noteLeft,
		noteTop:  noteTop,
	}
}

// Created returns the identity of the note being dragged.
func (d *DragSession) Created() string { return d.created }

// Move returns the chip's continuous on-screen position for the current
// pointer coordinates. No write happens here.
func (d *DragSession) Move(pointerX, pointerY float64) (left, top float64) {
	dx, dy := pointerX-d.startX, pointerY-d.startY
	if dx*dx+dy*dy > dragSlop*dragSlop {
		d.moved = true
	}
	return d.noteLeft + dx, d.noteTop + dy
}

// Release ends the gesture. When the pointer actually travelled, the
// final position is clamped to the viewport and committed through
// commit exactly once, and Release reports true so the caller arms the
// click gate. A slop-bounded gesture commits nothing and reports false:
// it was a click, and the editor flow may proceed.
func (d *DragSession) Release(pointerX, pointerY float64, vp Viewport, commit func(left, top string)) bool {
	left, top := d.Move(pointerX, pointerY)
	if !d.moved {
		return false
	}
	commit(
		annotation.Px(clamp(left, edgeMargin, vp.Width-edgeMargin)),
		annotation.Px(clamp(top, edgeMargin, vp.Height-edgeMargin)),
	)
	return true
}

// ClickGate discriminates a plain click from the click that terminated
// a drag: after a drag release, clicks are ignored for a short window
// so the editor does not reopen on the same gesture.
type ClickGate struct {
	window      time.Duration
	now         func() time.Time
	ignoreUntil time.Time
}

// NewClickGate uses a 250ms ignore window and the wall clock.
func NewClickGate() *ClickGate {
	return &ClickGate{
		window: 250 * time.Millisecond,
		now:    time.Now,
	}
}

// ArmAfterDrag starts the ignore window. Called when Release reported a
// drag.
func (g *ClickGate) ArmAfterDrag() {
	g.ignoreUntil = g.now().Add(g.window)
}

// Allow reports whether a click may open the editor right now.
func (g *ClickGate) Allow() bool {
	return g.now().After(g.ignoreUntil)
}
