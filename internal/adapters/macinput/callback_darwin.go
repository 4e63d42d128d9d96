//go:build darwin

package macinput

/*
#include <stdint.h>
*/
import "C"

import "runtime/cgo"

//export overlayTapEvent
func overlayTapEvent(handle C.uintptr_t, kind C.uint32_t, keycode C.uint16_t, autorepeat C.int, flags C.uint64_t, button C.int64_t, x, y C.double) C.int {
	t, ok := cgo.Handle(handle).Value().(*Tap)
	if !ok {
		return 0
	}
	queued := t.queue(tapEvent{
		kind:       uint32(kind),
		keycode:    uint16(keycode),
		autorepeat: autorepeat != 0,
		flags:      uint64(flags),
		button:     int64(button),
		x:          float64(x),
		y:          float64(y),
	})
	if queued {
		return 1
	}
	return 0
}

//export overlayTapDisabled
func overlayTapDisabled(handle C.uintptr_t) {
	if t, ok := cgo.Handle(handle).Value().(*Tap); ok {
		t.logger.Warn("Event tap disabled by the system, re-enabled")
	}
}
