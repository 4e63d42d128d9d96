package macinput

import "overlayinput/internal/core/overlay"

// CGEventType values delivered to the tap.
const (
	eventLeftMouseDown          uint32 = 1
	eventLeftMouseUp            uint32 = 2
	eventRightMouseDown         uint32 = 3
	eventRightMouseUp           uint32 = 4
	eventMouseMoved             uint32 = 5
	eventLeftMouseDragged       uint32 = 6
	eventRightMouseDragged      uint32 = 7
	eventKeyDown                uint32 = 10
	eventKeyUp                  uint32 = 11
	eventFlagsChanged           uint32 = 12
	eventOtherMouseDown         uint32 = 25
	eventOtherMouseUp           uint32 = 26
	eventOtherMouseDragged      uint32 = 27
	eventTapDisabledByTimeout   uint32 = 0xFFFFFFFE
	eventTapDisabledByUserInput uint32 = 0xFFFFFFFF
)

// Device-dependent CGEventFlags bits. The generic masks only say that some
// shift is down; these say which one.
const (
	flagLeftCtrl   uint64 = 0x00000001
	flagLeftShift  uint64 = 0x00000002
	flagRightShift uint64 = 0x00000004
	flagLeftCmd    uint64 = 0x00000008
	flagRightCmd   uint64 = 0x00000010
	flagLeftAlt    uint64 = 0x00000020
	flagRightAlt   uint64 = 0x00000040
	flagRightCtrl  uint64 = 0x00002000
)

var keycodeToKey = map[uint16]overlay.SymbolicKey{
	0x00: overlay.KeyA,
	0x01: overlay.KeyS,
	0x02: overlay.KeyD,
	0x03: overlay.KeyF,
	0x08: overlay.KeyC,
	0x38: overlay.KeyLeftShift,
	0x3C: overlay.KeyRightShift,
	0x3B: overlay.KeyLeftCtrl,
	0x3E: overlay.KeyRightCtrl,
	0x3A: overlay.KeyLeftAlt,
	0x3D: overlay.KeyRightAlt,
	0x37: overlay.KeyLeftMeta,
	0x36: overlay.KeyRightMeta,
}

var modifierFlags = map[overlay.SymbolicKey]uint64{
	overlay.KeyLeftShift:  flagLeftShift,
	overlay.KeyRightShift: flagRightShift,
	overlay.KeyLeftCtrl:   flagLeftCtrl,
	overlay.KeyRightCtrl:  flagRightCtrl,
	overlay.KeyLeftAlt:    flagLeftAlt,
	overlay.KeyRightAlt:   flagRightAlt,
	overlay.KeyLeftMeta:   flagLeftCmd,
	overlay.KeyRightMeta:  flagRightCmd,
}

// MapKeyCode translates an ANSI virtual keycode.
func MapKeyCode(code uint16) (overlay.SymbolicKey, bool) {
	key, ok := keycodeToKey[code]
	return key, ok
}

// tapEvent is the subset of a CGEvent the decoder looks at.
type tapEvent struct {
	kind       uint32
	keycode    uint16
	autorepeat bool
	flags      uint64
	button     int64
	x, y       float64
}

func decodeTapEvent(ev tapEvent, out []overlay.RawEvent) []overlay.RawEvent {
	switch ev.kind {
	case eventMouseMoved, eventLeftMouseDragged, eventRightMouseDragged, eventOtherMouseDragged:
		return append(out, ev.position())
	case eventLeftMouseDown:
		return append(out, ev.position(), mouseButton(overlay.ButtonLeft, overlay.Pressed))
	case eventLeftMouseUp:
		return append(out, mouseButton(overlay.ButtonLeft, overlay.Released))
	case eventRightMouseDown:
		return append(out, ev.position(), mouseButton(overlay.ButtonRight, overlay.Pressed))
	case eventRightMouseUp:
		return append(out, mouseButton(overlay.ButtonRight, overlay.Released))
	case eventOtherMouseDown, eventOtherMouseUp:
		// Button 2 is the middle button; higher numbers are side buttons.
		if ev.button != 2 {
			return out
		}
		if ev.kind == eventOtherMouseDown {
			return append(out, ev.position(), mouseButton(overlay.ButtonMiddle, overlay.Pressed))
		}
		return append(out, mouseButton(overlay.ButtonMiddle, overlay.Released))
	case eventKeyDown:
		key, _ := MapKeyCode(ev.keycode)
		transition := overlay.Pressed
		if ev.autorepeat {
			transition = overlay.Repeated
		}
		return append(out, overlay.KeyEvent(overlay.SourceKeyboard, key, transition))
	case eventKeyUp:
		key, _ := MapKeyCode(ev.keycode)
		return append(out, overlay.KeyEvent(overlay.SourceKeyboard, key, overlay.Released))
	case eventFlagsChanged:
		key, ok := MapKeyCode(ev.keycode)
		if !ok || !key.IsModifier() {
			// Caps lock and fn also arrive here.
			return out
		}
		transition := overlay.Released
		if ev.flags&modifierFlags[key] != 0 {
			transition = overlay.Pressed
		}
		return append(out, overlay.KeyEvent(overlay.SourceKeyboard, key, transition))
	}
	return out
}

func (ev tapEvent) position() overlay.RawEvent {
	return overlay.AbsoluteMotion(overlay.SourceMouse, int(ev.x), int(ev.y))
}

func mouseButton(button overlay.Button, transition overlay.Transition) overlay.RawEvent {
	return overlay.ButtonEvent(overlay.SourceMouse, button, transition)
}
