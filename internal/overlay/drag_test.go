package overlay

import (
	"testing"
	"time"
)

func TestDragCommitsOnceOnRelease(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	d := BeginDrag("note-1", 120, 130, 100, 100)

	var commits []string
	// A burst of intermediate moves: none may write.
	for i := 0; i < 20; i++ {
		d.Move(120+float64(i*5), 130)
	}
	wasDrag := d.Release(220, 180, vp, func(left, top string) {
		commits = append(commits, left+"/"+top)
	})

	if !wasDrag {
		t.Fatal("gesture travelled well past slop, expected a drag")
	}
	if len(commits) != 1 {
		t.Fatalf("expected exactly one commit, got %d", len(commits))
	}
	// Pointer moved +100/+50 from the grab point.
	if commits[0] != "200px/150px" {
		t.Errorf("expected 200px/150px, got %s", commits[0])
	}
}

func TestDragWithinSlopIsAClick(t *testing.T) {
	d := BeginDrag("note-1", 120, 130, 100, 100)
	d.Move(121, 131)

	committed := false
	wasDrag := d.Release(121, 131, Viewport{Width: 800, Height: 600}, func(string, string) {
		committed = true
	})
	if wasDrag {
		t.Error("sub-slop gesture must count as a click")
	}
	if committed {
		t.Error("click must not commit a position")
	}
}

func TestDragReleaseClampsToViewport(t *testing.T) {
	d := BeginDrag("note-1", 0, 0, 100, 100)

	var left, top string
	d.Release(2000, -500, Viewport{Width: 800, Height: 600}, func(l, tp string) {
		left, top = l, tp
	})
	if left != "790px" {
		t.Errorf("expected clamp to 790px, got %s", left)
	}
	if top != "10px" {
		t.Errorf("expected clamp to 10px, got %s", top)
	}
}

func TestClickGateIgnoreWindow(t *testing.T) {
	now := time.Unix(0, 0)
	g := NewClickGate()
	g.now = func() time.Time { return now }

	if !g.Allow() {
		t.Fatal("gate should start open")
	}
	g.ArmAfterDrag()
	if g.Allow() {
		t.Error("click immediately after a drag must be ignored")
	}
	now = now.Add(100 * time.Millisecond)
	if g.Allow() {
		t.Error("click inside the ignore window must be ignored")
	}
	now = now.Add(200 * time.Millisecond)
	if !g.Allow() {
		t.Error("gate should reopen after the window")
	}
}
