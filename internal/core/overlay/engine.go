package overlay

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Option func(*Engine)

// WithShortcuts replaces the default shortcut table.
func WithShortcuts(table ShortcutTable) Option {
	return func(e *Engine) {
		e.shortcuts = table
	}
}

// WithWaitTimeout changes how long one cycle waits before a Heartbeat.
func WithWaitTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.waitTimeout = timeout
		}
	}
}

// WithClickThrough installs an observer that is told whenever the cursor
// enters or leaves the overlay's interactive regions.
func WithClickThrough(observer ClickThrough) Option {
	return func(e *Engine) {
		e.clickThrough = observer
	}
}

// Engine turns raw input cycles into semantic events. ProcessBatch must not
// be called concurrently; Run and callback-driven sources both call it from
// a single goroutine.
type Engine struct {
	state        *SharedState
	emitter      Emitter
	logger       Logger
	modifiers    *ModifierSet
	shortcuts    ShortcutTable
	waitTimeout  time.Duration
	clickThrough ClickThrough
	interactive  *bool

	rectsGeneration uint64
}

func NewEngine(state *SharedState, emitter Emitter, logger Logger, opts ...Option) (*Engine, error) {
	if state == nil {
		return nil, fmt.Errorf("shared state is nil")
	}
	if emitter == nil {
		return nil, fmt.Errorf("emitter is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	e := &Engine{
		state:       state,
		emitter:     emitter,
		logger:      logger,
		modifiers:   NewModifierSet(),
		shortcuts:   DefaultShortcuts(),
		waitTimeout: DefaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Announce emits the single Ready event describing the opened sources.
func (e *Engine) Announce(counts SourceCounts) {
	width, height := e.state.Bounds()
	e.logger.Info("Input capture ready",
		"mice", counts.Mice,
		"keyboards", counts.Keyboards,
		"width", width,
		"height", height,
	)
	e.emitter.Emit(Ready{
		MiceCount:      counts.Mice,
		KeyboardsCount: counts.Keyboards,
		ScreenWidth:    width,
		ScreenHeight:   height,
	})
}

// Run announces the multiplexer's sources and then processes cycles until
// ctx is cancelled or the multiplexer reports ErrSourceClosed. The
// multiplexer is closed before Run returns.
func (e *Engine) Run(ctx context.Context, mux Multiplexer) error {
	if mux == nil {
		return fmt.Errorf("multiplexer is nil")
	}
	defer func() {
		if err := mux.Close(); err != nil {
			e.logger.Warn("Closing input sources failed", "err", err)
		}
	}()

	e.Announce(mux.Counts())

	for {
		if err := ctx.Err(); err != nil {
			e.logger.Info("Input capture stopping")
			return nil
		}

		cycle, err := mux.Wait(e.waitTimeout)
		if err != nil {
			if errors.Is(err, ErrSourceClosed) {
				e.logger.Info("Input sources closed")
				return nil
			}
			e.logger.Warn("Wait for input failed", "err", err)
			e.backoff(ctx)
			continue
		}
		if cycle.TimedOut && len(cycle.Events) == 0 {
			e.emitter.Emit(Heartbeat{})
			e.updateClickThrough(e.state.Cursor(), false)
			continue
		}
		e.ProcessBatch(cycle.Events)
	}
}

// ProcessBatch applies one cycle of raw events. All motion is folded first,
// then key and button events are handled in order (clicks report the
// post-motion position), and finally at most one CursorMoved is emitted.
func (e *Engine) ProcessBatch(events []RawEvent) {
	if len(events) == 0 {
		return
	}

	var m motion
	for _, ev := range events {
		m.add(ev)
	}
	pos, moved := e.state.applyMotion(m)

	for _, ev := range events {
		switch ev.Kind {
		case RawKey:
			e.handleKey(ev)
		case RawButton:
			if ev.Transition == Pressed {
				e.emitter.Emit(Click{Button: ev.Button.String(), X: pos.X, Y: pos.Y})
			}
		}
	}

	if moved {
		e.emitter.Emit(CursorMoved{X: pos.X, Y: pos.Y})
	}
	e.updateClickThrough(pos, moved)
}

// backoff pauses for one wait period after a failed Wait so a source that
// keeps failing does not spin the loop.
func (e *Engine) backoff(ctx context.Context) {
	timer := time.NewTimer(e.waitTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (e *Engine) handleKey(ev RawEvent) {
	if ev.Key.IsModifier() {
		e.modifiers.OnKeyTransition(ev.Key, ev.Transition)
		return
	}
	if ev.Transition != Pressed {
		return
	}
	if name, ok := e.shortcuts.Match(ev.Key, e.modifiers.Groups()); ok {
		e.logger.Debug("Shortcut matched", "name", name)
		e.emitter.Emit(Shortcut{Name: name})
	}
	e.emitter.Emit(Activity{})
}

// updateClickThrough re-evaluates the interactive regions when the cursor
// moved or the frontend replaced the rectangle list since the last check.
func (e *Engine) updateClickThrough(pos Point, moved bool) {
	if e.clickThrough == nil {
		return
	}
	generation := e.state.rectsGeneration()
	if !moved && generation == e.rectsGeneration {
		return
	}
	e.rectsGeneration = generation
	interactive := e.state.InteractiveAt(pos)
	if e.interactive != nil && *e.interactive == interactive {
		return
	}
	e.interactive = &interactive
	e.clickThrough.SetInteractive(interactive)
}

// motion accumulates the motion of one cycle. An absolute report discards
// earlier deltas; later deltas are applied on top of it.
type motion struct {
	hasAbsolute bool
	hasDelta    bool
	absolute    Point
	dx          int
	dy          int
}

func (m *motion) add(ev RawEvent) {
	switch ev.Kind {
	case RawRelativeMotion:
		m.dx += ev.X
		m.dy += ev.Y
		m.hasDelta = true
	case RawAbsoluteMotion:
		m.hasAbsolute = true
		m.absolute = Point{X: ev.X, Y: ev.Y}
		m.dx, m.dy = 0, 0
		m.hasDelta = false
	}
}

func (m motion) any() bool {
	return m.hasAbsolute || m.hasDelta
}
