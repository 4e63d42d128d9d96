package wininput

import "overlayinput/internal/core/overlay"

const (
	vkSHIFT    uint16 = 0x10
	vkCONTROL  uint16 = 0x11
	vkMENU     uint16 = 0x12
	vkA        uint16 = 0x41
	vkC        uint16 = 0x43
	vkD        uint16 = 0x44
	vkF        uint16 = 0x46
	vkQ        uint16 = 0x51
	vkS        uint16 = 0x53
	vkLWIN     uint16 = 0x5B
	vkRWIN     uint16 = 0x5C
	vkLSHIFT   uint16 = 0xA0
	vkRSHIFT   uint16 = 0xA1
	vkLCONTROL uint16 = 0xA2
	vkRCONTROL uint16 = 0xA3
	vkLMENU    uint16 = 0xA4
	vkRMENU    uint16 = 0xA5

	// Raw input reports VK 0xFF for the escape prefixes of some sequences.
	vkFakeEscape uint16 = 0xFF
)

// RAWKEYBOARD.Flags bits.
const (
	riKeyBreak uint16 = 0x01
	riKeyE0    uint16 = 0x02
)

const scanRightShift uint16 = 0x36

// RAWMOUSE.usButtonFlags bits.
const (
	riMouseLeftDown   uint16 = 0x0001
	riMouseLeftUp     uint16 = 0x0002
	riMouseRightDown  uint16 = 0x0004
	riMouseRightUp    uint16 = 0x0008
	riMouseMiddleDown uint16 = 0x0010
	riMouseMiddleUp   uint16 = 0x0020
)

var vkToKey = map[uint16]overlay.SymbolicKey{
	vkLSHIFT:   overlay.KeyLeftShift,
	vkRSHIFT:   overlay.KeyRightShift,
	vkLCONTROL: overlay.KeyLeftCtrl,
	vkRCONTROL: overlay.KeyRightCtrl,
	vkLMENU:    overlay.KeyLeftAlt,
	vkRMENU:    overlay.KeyRightAlt,
	vkLWIN:     overlay.KeyLeftMeta,
	vkRWIN:     overlay.KeyRightMeta,
	vkF:        overlay.KeyF,
	vkD:        overlay.KeyD,
	vkS:        overlay.KeyS,
	vkC:        overlay.KeyC,
	vkA:        overlay.KeyA,
}

// MapVirtualKey translates a raw-input keyboard report. Raw input delivers
// the generic VK_SHIFT/VK_CONTROL/VK_MENU codes, so the side is recovered
// from the scan code or the E0 prefix flag.
func MapVirtualKey(vk, makeCode, flags uint16) (overlay.SymbolicKey, bool) {
	switch vk {
	case vkSHIFT:
		if makeCode == scanRightShift {
			return overlay.KeyRightShift, true
		}
		return overlay.KeyLeftShift, true
	case vkCONTROL:
		if flags&riKeyE0 != 0 {
			return overlay.KeyRightCtrl, true
		}
		return overlay.KeyLeftCtrl, true
	case vkMENU:
		if flags&riKeyE0 != 0 {
			return overlay.KeyRightAlt, true
		}
		return overlay.KeyLeftAlt, true
	}

	key, ok := vkToKey[vk]
	return key, ok
}

var mouseButtonFlags = [...]struct {
	flag       uint16
	button     overlay.Button
	transition overlay.Transition
}{
	{riMouseLeftDown, overlay.ButtonLeft, overlay.Pressed},
	{riMouseLeftUp, overlay.ButtonLeft, overlay.Released},
	{riMouseRightDown, overlay.ButtonRight, overlay.Pressed},
	{riMouseRightUp, overlay.ButtonRight, overlay.Released},
	{riMouseMiddleDown, overlay.ButtonMiddle, overlay.Pressed},
	{riMouseMiddleUp, overlay.ButtonMiddle, overlay.Released},
}

func decodeMouseButtons(flags uint16, out []overlay.RawEvent) []overlay.RawEvent {
	for _, b := range mouseButtonFlags {
		if flags&b.flag != 0 {
			out = append(out, overlay.ButtonEvent(overlay.SourceMouse, b.button, b.transition))
		}
	}
	return out
}

// keyTracker derives repeat transitions: raw input reports auto-repeat as
// another make without a break in between.
type keyTracker struct {
	down map[uint32]struct{}
}

func newKeyTracker() *keyTracker {
	return &keyTracker{down: make(map[uint32]struct{})}
}

func keyID(vk, makeCode, flags uint16) uint32 {
	id := uint32(vk)<<16 | uint32(makeCode&0x7FFF)
	if flags&riKeyE0 != 0 {
		id |= 0x8000
	}
	return id
}

func (k *keyTracker) transition(id uint32, isBreak bool) overlay.Transition {
	if isBreak {
		delete(k.down, id)
		return overlay.Released
	}
	if _, held := k.down[id]; held {
		return overlay.Repeated
	}
	k.down[id] = struct{}{}
	return overlay.Pressed
}

// decodeKeyboard normalises one RAWKEYBOARD report.
func (k *keyTracker) decodeKeyboard(vk, makeCode, flags uint16, out []overlay.RawEvent) []overlay.RawEvent {
	if vk == vkFakeEscape || vk == 0 {
		return out
	}
	key, _ := MapVirtualKey(vk, makeCode, flags)
	transition := k.transition(keyID(vk, makeCode, flags), flags&riKeyBreak != 0)
	return append(out, overlay.KeyEvent(overlay.SourceKeyboard, key, transition))
}
