package overlay

import "testing"

func TestNewCursorTrackerStartsAtCenter(t *testing.T) {
	c := NewCursorTracker(800, 600)
	if got := c.Position(); got != (Point{X: 400, Y: 300}) {
		t.Fatalf("Position()=%+v, want {400 300}", got)
	}
}

func TestApplyDeltaClampsToLeftEdge(t *testing.T) {
	c := NewCursorTracker(800, 600)

	if !c.ApplyDelta(-500, 0) {
		t.Fatalf("ApplyDelta(-500,0) reported no change")
	}
	if got := c.Position(); got != (Point{X: 0, Y: 300}) {
		t.Fatalf("Position()=%+v, want {0 300}", got)
	}
}

func TestApplyDeltaPinnedAtEdgeReportsNoChange(t *testing.T) {
	c := NewCursorTracker(800, 600)
	if !c.ApplyDelta(10000, 10000) {
		t.Fatalf("first ApplyDelta reported no change")
	}
	if got := c.Position(); got != (Point{X: 799, Y: 599}) {
		t.Fatalf("Position()=%+v, want {799 599}", got)
	}
	for i := 0; i < 3; i++ {
		if c.ApplyDelta(50, 50) {
			t.Fatalf("ApplyDelta beyond the edge reported a change on iteration %d", i)
		}
	}
}

func TestApplyDeltaZeroOnlyChangesBeforeFirstReport(t *testing.T) {
	c := NewCursorTracker(1920, 1080)
	if !c.ApplyDelta(0, 0) {
		t.Fatalf("ApplyDelta(0,0) on a fresh tracker should report the initial position")
	}
	if c.ApplyDelta(0, 0) {
		t.Fatalf("ApplyDelta(0,0) after a report should not change")
	}
}

func TestApplyAbsoluteRepeatedPositionReportsOnce(t *testing.T) {
	c := NewCursorTracker(1920, 1080)
	if !c.ApplyAbsolute(100, 200) {
		t.Fatalf("ApplyAbsolute(100,200) reported no change")
	}
	if c.ApplyAbsolute(100, 200) {
		t.Fatalf("repeated ApplyAbsolute(100,200) reported a change")
	}
	if !c.ApplyAbsolute(-20, 5000) {
		t.Fatalf("ApplyAbsolute(-20,5000) reported no change")
	}
	if got := c.Position(); got != (Point{X: 0, Y: 1079}) {
		t.Fatalf("Position()=%+v, want {0 1079}", got)
	}
}

func TestApplyDeltaStaysInBounds(t *testing.T) {
	c := NewCursorTracker(640, 480)
	deltas := [][2]int{
		{1 << 20, 3}, {-7, -(1 << 20)}, {-(1 << 20), 1 << 20}, {13, -2},
		{0, 0}, {319, 239}, {-1, -1}, {1 << 30, 1 << 30}, {-(1 << 30), 0},
	}
	for _, d := range deltas {
		c.ApplyDelta(d[0], d[1])
		p := c.Position()
		if p.X < 0 || p.X >= 640 || p.Y < 0 || p.Y >= 480 {
			t.Fatalf("after delta %v position %+v is out of bounds", d, p)
		}
	}
}

func TestOverwriteDoesNotResetChangeDetection(t *testing.T) {
	c := NewCursorTracker(800, 600)
	c.ApplyAbsolute(10, 10)
	c.Overwrite(500, 500)
	if got := c.Position(); got != (Point{X: 500, Y: 500}) {
		t.Fatalf("Position()=%+v, want {500 500}", got)
	}
	if !c.ApplyDelta(0, 0) {
		t.Fatalf("ApplyDelta after Overwrite should report the new position")
	}
}

func TestSetBoundsReclamps(t *testing.T) {
	c := NewCursorTracker(1920, 1080)
	c.ApplyAbsolute(1900, 1000)
	c.SetBounds(800, 600)
	if got := c.Position(); got != (Point{X: 799, Y: 599}) {
		t.Fatalf("Position()=%+v, want {799 599}", got)
	}
	if w, h := c.Bounds(); w != 800 || h != 600 {
		t.Fatalf("Bounds()=%d,%d, want 800,600", w, h)
	}
}

func TestNewCursorTrackerRejectsEmptyBounds(t *testing.T) {
	c := NewCursorTracker(0, -5)
	if w, h := c.Bounds(); w != 1 || h != 1 {
		t.Fatalf("Bounds()=%d,%d, want 1,1", w, h)
	}
	c.ApplyDelta(10, 10)
	if got := c.Position(); got != (Point{}) {
		t.Fatalf("Position()=%+v, want origin", got)
	}
}
