//go:build darwin

package macinput

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework CoreGraphics
#include <stdint.h>
#include <ApplicationServices/ApplicationServices.h>

extern int overlayTapEvent(uintptr_t handle, uint32_t kind, uint16_t keycode, int autorepeat, uint64_t flags, int64_t button, double x, double y);
extern void overlayTapDisabled(uintptr_t handle);

static CFMachPortRef overlayTap;
static CFRunLoopSourceRef overlaySource;
static CFRunLoopRef overlayLoop;

static CGEventRef overlayTrampoline(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
	uintptr_t handle = (uintptr_t)refcon;
	if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
		if (overlayTap != NULL) {
			CGEventTapEnable(overlayTap, true);
		}
		overlayTapDisabled(handle);
		return event;
	}
	if (event == NULL) {
		return event;
	}
	CGPoint location = CGEventGetLocation(event);
	int queued = overlayTapEvent(handle, (uint32_t)type,
		(uint16_t)CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode),
		CGEventGetIntegerValueField(event, kCGKeyboardEventAutorepeat) != 0,
		(uint64_t)CGEventGetFlags(event),
		(int64_t)CGEventGetIntegerValueField(event, kCGMouseEventButtonNumber),
		location.x, location.y);
	if (queued) {
		CFRunLoopStop(CFRunLoopGetCurrent());
	}
	return event;
}

// overlayOpenTap returns 0 on success, 1 when the tap was refused and 2
// when it could not be attached to the current run loop.
static int overlayOpenTap(uintptr_t handle) {
	CGEventMask mask =
		CGEventMaskBit(kCGEventMouseMoved) |
		CGEventMaskBit(kCGEventLeftMouseDragged) |
		CGEventMaskBit(kCGEventRightMouseDragged) |
		CGEventMaskBit(kCGEventOtherMouseDragged) |
		CGEventMaskBit(kCGEventLeftMouseDown) |
		CGEventMaskBit(kCGEventLeftMouseUp) |
		CGEventMaskBit(kCGEventRightMouseDown) |
		CGEventMaskBit(kCGEventRightMouseUp) |
		CGEventMaskBit(kCGEventOtherMouseDown) |
		CGEventMaskBit(kCGEventOtherMouseUp) |
		CGEventMaskBit(kCGEventKeyDown) |
		CGEventMaskBit(kCGEventKeyUp) |
		CGEventMaskBit(kCGEventFlagsChanged);
	overlayTap = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
		kCGEventTapOptionListenOnly, mask, overlayTrampoline, (void *)handle);
	if (overlayTap == NULL) {
		return 1;
	}
	overlaySource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, overlayTap, 0);
	if (overlaySource == NULL) {
		CFMachPortInvalidate(overlayTap);
		CFRelease(overlayTap);
		overlayTap = NULL;
		return 2;
	}
	overlayLoop = CFRunLoopGetCurrent();
	CFRunLoopAddSource(overlayLoop, overlaySource, kCFRunLoopCommonModes);
	CGEventTapEnable(overlayTap, true);
	return 0;
}

static void overlayCloseTap(void) {
	if (overlayTap == NULL) {
		return;
	}
	CGEventTapEnable(overlayTap, false);
	CFRunLoopRemoveSource(overlayLoop, overlaySource, kCFRunLoopCommonModes);
	CFRelease(overlaySource);
	CFMachPortInvalidate(overlayTap);
	CFRelease(overlayTap);
	overlaySource = NULL;
	overlayTap = NULL;
	overlayLoop = NULL;
}

static int overlayRunOnce(double seconds) {
	return (int)CFRunLoopRunInMode(kCFRunLoopDefaultMode, seconds, false);
}

static void overlayInterrupt(void) {
	CFRunLoopRef loop = overlayLoop;
	if (loop != NULL) {
		CFRunLoopStop(loop);
		CFRunLoopWakeUp(loop);
	}
}

static int overlayAccessibilityTrusted(void) {
	return AXIsProcessTrusted() ? 1 : 0;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime/cgo"
	"sync/atomic"
	"time"

	"overlayinput/internal/core/overlay"
)

const runLoopTimedOut = 3

// ErrAccessibilityDenied means the event tap could not be created, which on
// current macOS releases means the process lacks Accessibility (or Input
// Monitoring) permission.
var ErrAccessibilityDenied = errors.New("event tap refused: grant Accessibility permission in System Settings > Privacy & Security")

var tapActive atomic.Bool

// Tap is a listen-only session event tap driven one run-loop slice per Wait.
// Open, Wait and Close must run on the same locked OS thread, and only one
// Tap may be open per process.
type Tap struct {
	logger  overlay.Logger
	handle  cgo.Handle
	pending []overlay.RawEvent
	stopped atomic.Bool
	closed  bool
}

func Open(logger overlay.Logger) (*Tap, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if !tapActive.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("event tap is already open")
	}

	t := &Tap{logger: logger}
	t.handle = cgo.NewHandle(t)

	switch C.overlayOpenTap(C.uintptr_t(t.handle)) {
	case 0:
		return t, nil
	case 1:
		t.release()
		if C.overlayAccessibilityTrusted() == 0 {
			logger.Debug("Process is not trusted for accessibility")
		}
		return nil, ErrAccessibilityDenied
	default:
		t.release()
		return nil, fmt.Errorf("failed to attach event tap to run loop")
	}
}

// Counts reports one pointer and one keyboard: a session tap sees the merged
// stream and cannot tell devices apart.
func (t *Tap) Counts() overlay.SourceCounts {
	return overlay.SourceCounts{Mice: 1, Keyboards: 1}
}

func (t *Tap) Wait(timeout time.Duration) (overlay.Cycle, error) {
	if t.closed || t.stopped.Load() {
		return overlay.Cycle{}, overlay.ErrSourceClosed
	}
	t.pending = nil

	result := C.overlayRunOnce(C.double(timeout.Seconds()))
	if t.stopped.Load() {
		return overlay.Cycle{}, overlay.ErrSourceClosed
	}
	if result == runLoopTimedOut && len(t.pending) == 0 {
		return overlay.Cycle{TimedOut: true}, nil
	}
	return overlay.Cycle{Events: t.pending}, nil
}

// Interrupt wakes a blocked Wait from any goroutine; the next Wait reports
// ErrSourceClosed.
func (t *Tap) Interrupt() {
	t.stopped.Store(true)
	C.overlayInterrupt()
}

func (t *Tap) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	C.overlayCloseTap()
	t.release()
	return nil
}

func (t *Tap) release() {
	t.handle.Delete()
	tapActive.Store(false)
}

// queue decodes one tap event and reports whether it produced input.
func (t *Tap) queue(ev tapEvent) bool {
	before := len(t.pending)
	t.pending = decodeTapEvent(ev, t.pending)
	return len(t.pending) > before
}
