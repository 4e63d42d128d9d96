//go:build linux

package linuxinput

import (
	"overlayinput/internal/core/overlay"

	evdev "github.com/holoplot/go-evdev"
)

var keyMap = map[evdev.EvCode]overlay.SymbolicKey{
	evdev.KEY_LEFTSHIFT:  overlay.KeyLeftShift,
	evdev.KEY_RIGHTSHIFT: overlay.KeyRightShift,
	evdev.KEY_LEFTCTRL:   overlay.KeyLeftCtrl,
	evdev.KEY_RIGHTCTRL:  overlay.KeyRightCtrl,
	evdev.KEY_LEFTALT:    overlay.KeyLeftAlt,
	evdev.KEY_RIGHTALT:   overlay.KeyRightAlt,
	evdev.KEY_LEFTMETA:   overlay.KeyLeftMeta,
	evdev.KEY_RIGHTMETA:  overlay.KeyRightMeta,
	evdev.KEY_F:          overlay.KeyF,
	evdev.KEY_D:          overlay.KeyD,
	evdev.KEY_S:          overlay.KeyS,
	evdev.KEY_C:          overlay.KeyC,
	evdev.KEY_A:          overlay.KeyA,
}

var buttonMap = map[evdev.EvCode]overlay.Button{
	evdev.BTN_LEFT:   overlay.ButtonLeft,
	evdev.BTN_RIGHT:  overlay.ButtonRight,
	evdev.BTN_MIDDLE: overlay.ButtonMiddle,
}

// MapKey translates an evdev key code. Unmapped keys return KeyUnknown and
// false.
func MapKey(code uint16) (overlay.SymbolicKey, bool) {
	key, ok := keyMap[evdev.EvCode(code)]
	return key, ok
}

func MapButton(code uint16) (overlay.Button, bool) {
	button, ok := buttonMap[evdev.EvCode(code)]
	return button, ok
}

func codeIsMouseButton(code uint16) bool {
	c := evdev.EvCode(code)
	return c >= evdev.BTN_MOUSE && c <= evdev.BTN_TASK
}

func transitionFromValue(value int32) (overlay.Transition, bool) {
	switch value {
	case 0:
		return overlay.Released, true
	case 1:
		return overlay.Pressed, true
	case 2:
		return overlay.Repeated, true
	default:
		return overlay.Released, false
	}
}

// decodeEvents normalises a slice of evdev events read from one source.
// Events that match no recognised shape are skipped.
func decodeEvents(class overlay.SourceClass, events []evdev.InputEvent, out []overlay.RawEvent) []overlay.RawEvent {
	for _, ev := range events {
		switch ev.Type {
		case evdev.EV_REL:
			switch ev.Code {
			case evdev.REL_X:
				out = append(out, overlay.RelativeMotion(class, int(ev.Value), 0))
			case evdev.REL_Y:
				out = append(out, overlay.RelativeMotion(class, 0, int(ev.Value)))
			}
		case evdev.EV_KEY:
			transition, ok := transitionFromValue(ev.Value)
			if !ok {
				continue
			}
			code := uint16(ev.Code)
			if codeIsMouseButton(code) {
				button, ok := MapButton(code)
				if !ok || transition == overlay.Repeated {
					continue
				}
				out = append(out, overlay.ButtonEvent(class, button, transition))
				continue
			}
			key, _ := MapKey(code)
			out = append(out, overlay.KeyEvent(class, key, transition))
		}
	}
	return out
}
