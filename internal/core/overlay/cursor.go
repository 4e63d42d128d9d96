package overlay

type Point struct {
	X int
	Y int
}

// CursorTracker reconstructs an absolute cursor position from relative and
// absolute motion. The position always lies in [0,width) x [0,height).
// lastReported starts at (-1,-1) so the first in-bounds position counts as
// a change.
type CursorTracker struct {
	pos          Point
	lastReported Point
	width        int
	height       int
}

func NewCursorTracker(width, height int) *CursorTracker {
	width, height = sanitizeBounds(width, height)
	return &CursorTracker{
		pos:          Point{X: width / 2, Y: height / 2},
		lastReported: Point{X: -1, Y: -1},
		width:        width,
		height:       height,
	}
}

// ApplyDelta moves the cursor by (dx,dy) and reports whether the clamped
// position differs from the last reported one.
func (c *CursorTracker) ApplyDelta(dx, dy int) bool {
	return c.moveTo(c.pos.X+dx, c.pos.Y+dy)
}

// ApplyAbsolute places the cursor at (x,y) and reports whether the clamped
// position differs from the last reported one.
func (c *CursorTracker) ApplyAbsolute(x, y int) bool {
	return c.moveTo(x, y)
}

func (c *CursorTracker) moveTo(x, y int) bool {
	c.pos = Point{X: clamp(x, 0, c.width-1), Y: clamp(y, 0, c.height-1)}
	if c.pos == c.lastReported {
		return false
	}
	c.lastReported = c.pos
	return true
}

// Overwrite sets the position without touching change detection, so the
// next real motion is compared against what was last emitted.
func (c *CursorTracker) Overwrite(x, y int) {
	c.pos = Point{X: clamp(x, 0, c.width-1), Y: clamp(y, 0, c.height-1)}
}

func (c *CursorTracker) Position() Point {
	return c.pos
}

func (c *CursorTracker) Bounds() (int, int) {
	return c.width, c.height
}

// SetBounds changes the screen size and re-clamps the current position.
func (c *CursorTracker) SetBounds(width, height int) {
	c.width, c.height = sanitizeBounds(width, height)
	c.Overwrite(c.pos.X, c.pos.Y)
}

func sanitizeBounds(width, height int) (int, int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
