package overlay

import (
	"errors"
	"time"
)

// DefaultWaitTimeout bounds a single multiplexer wait. A cycle that times
// out produces a Heartbeat.
const DefaultWaitTimeout = time.Second

// ErrSourceClosed is returned by a Multiplexer once it has been closed.
var ErrSourceClosed = errors.New("input sources closed")

// SymbolicKey is the platform-neutral name of a key the core cares about.
type SymbolicKey uint8

const (
	KeyUnknown SymbolicKey = iota
	KeyLeftShift
	KeyRightShift
	KeyLeftCtrl
	KeyRightCtrl
	KeyLeftAlt
	KeyRightAlt
	KeyLeftMeta
	KeyRightMeta
	KeyF
	KeyD
	KeyS
	KeyC
	KeyA
)

var keyNames = [...]string{
	KeyUnknown:    "unknown",
	KeyLeftShift:  "left_shift",
	KeyRightShift: "right_shift",
	KeyLeftCtrl:   "left_ctrl",
	KeyRightCtrl:  "right_ctrl",
	KeyLeftAlt:    "left_alt",
	KeyRightAlt:   "right_alt",
	KeyLeftMeta:   "left_meta",
	KeyRightMeta:  "right_meta",
	KeyF:          "f",
	KeyD:          "d",
	KeyS:          "s",
	KeyC:          "c",
	KeyA:          "a",
}

func (k SymbolicKey) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "unknown"
}

// IsModifier reports whether k is one of the eight side-specific modifiers.
func (k SymbolicKey) IsModifier() bool {
	return k.group() != 0
}

func (k SymbolicKey) group() ModifierGroup {
	switch k {
	case KeyLeftShift, KeyRightShift:
		return GroupShift
	case KeyLeftCtrl, KeyRightCtrl:
		return GroupCtrl
	case KeyLeftAlt, KeyRightAlt:
		return GroupAlt
	case KeyLeftMeta, KeyRightMeta:
		return GroupMeta
	default:
		return 0
	}
}

type Transition uint8

const (
	Released Transition = iota
	Pressed
	Repeated
)

func (t Transition) String() string {
	switch t {
	case Pressed:
		return "pressed"
	case Repeated:
		return "repeated"
	default:
		return "released"
	}
}

type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// SourceClass is the role a device was classified into when it was opened.
type SourceClass uint8

const (
	SourceMouse SourceClass = iota + 1
	SourceKeyboard
	SourceBoth
)

func (c SourceClass) String() string {
	switch c {
	case SourceMouse:
		return "mouse"
	case SourceKeyboard:
		return "keyboard"
	case SourceBoth:
		return "mouse+keyboard"
	default:
		return "none"
	}
}

type RawKind uint8

const (
	RawRelativeMotion RawKind = iota + 1
	RawAbsoluteMotion
	RawKey
	RawButton
)

// RawEvent is one normalised input report. Only the fields relevant to Kind
// are set: X/Y carry a delta for RawRelativeMotion and a position for
// RawAbsoluteMotion.
type RawEvent struct {
	Kind       RawKind
	Source     SourceClass
	X          int
	Y          int
	Key        SymbolicKey
	Button     Button
	Transition Transition
}

func RelativeMotion(source SourceClass, dx, dy int) RawEvent {
	return RawEvent{Kind: RawRelativeMotion, Source: source, X: dx, Y: dy}
}

func AbsoluteMotion(source SourceClass, x, y int) RawEvent {
	return RawEvent{Kind: RawAbsoluteMotion, Source: source, X: x, Y: y}
}

func KeyEvent(source SourceClass, key SymbolicKey, transition Transition) RawEvent {
	return RawEvent{Kind: RawKey, Source: source, Key: key, Transition: transition}
}

func ButtonEvent(source SourceClass, button Button, transition Transition) RawEvent {
	return RawEvent{Kind: RawButton, Source: source, Button: button, Transition: transition}
}

// Cycle is everything a multiplexer decoded during one wakeup.
type Cycle struct {
	Events   []RawEvent
	TimedOut bool
}

type SourceCounts struct {
	Mice      int
	Keyboards int
}

// Add counts one opened source of the given class.
func (c *SourceCounts) Add(class SourceClass) {
	switch class {
	case SourceMouse:
		c.Mice++
	case SourceKeyboard:
		c.Keyboards++
	case SourceBoth:
		c.Mice++
		c.Keyboards++
	}
}

// Multiplexer waits on every open input source at once. Wait returns after
// at least one source produced data or the timeout elapsed; in the latter
// case the returned Cycle has TimedOut set.
type Multiplexer interface {
	Counts() SourceCounts
	Wait(timeout time.Duration) (Cycle, error)
	Close() error
}

// ClickThrough is notified when the cursor moves on or off the overlay's
// interactive regions.
type ClickThrough interface {
	SetInteractive(interactive bool)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
