package overlay

import "sync"

// Rect is an interactive region of the overlay in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains treats both edges as inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// SharedState is the one object shared between the capture engine and the
// frontend command handlers. Every access goes through mu and no method
// holds it across I/O.
type SharedState struct {
	mu     sync.Mutex
	cursor *CursorTracker
	rects  []Rect

	// rectsGen counts SetInteractiveRects calls.
	rectsGen uint64
}

func NewSharedState(width, height int) *SharedState {
	return &SharedState{cursor: NewCursorTracker(width, height)}
}

func (s *SharedState) Cursor() Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Position()
}

func (s *SharedState) Bounds() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Bounds()
}

// SyncCursor overwrites the tracked position with one supplied by the UI.
func (s *SharedState) SyncCursor(x, y int) Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Overwrite(x, y)
	return s.cursor.Position()
}

func (s *SharedState) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.SetBounds(width, height)
}

func (s *SharedState) SetInteractiveRects(rects []Rect) {
	next := make([]Rect, len(rects))
	copy(next, rects)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rects = next
	s.rectsGen++
}

func (s *SharedState) rectsGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rectsGen
}

func (s *SharedState) InteractiveRects() []Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Rect, len(s.rects))
	copy(out, s.rects)
	return out
}

// InteractiveAt reports whether the overlay should receive clicks at p.
// With no registered rectangles the whole overlay is interactive.
func (s *SharedState) InteractiveAt(p Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rects) == 0 {
		return true
	}
	for _, r := range s.rects {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// applyMotion folds one cycle's motion into the tracker and returns the
// resulting position plus whether it changed since the last report.
func (s *SharedState) applyMotion(m motion) (Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.any() {
		return s.cursor.Position(), false
	}

	changed := false
	if m.hasAbsolute {
		changed = s.cursor.ApplyAbsolute(m.absolute.X+m.dx, m.absolute.Y+m.dy)
	} else {
		changed = s.cursor.ApplyDelta(m.dx, m.dy)
	}
	return s.cursor.Position(), changed
}
