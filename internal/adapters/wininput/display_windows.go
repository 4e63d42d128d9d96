//go:build windows

package wininput

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"overlayinput/internal/core/overlay"
	"overlayinput/internal/screen"

	"golang.org/x/sys/windows"
)

const (
	smCxScreen = 0
	smCyScreen = 1

	gwlExStyle       = -20
	wsExTransparent  = 0x00000020
	wsExLayered      = 0x00080000
	swpNoSize        = 0x0001
	swpNoMove        = 0x0002
	swpNoZOrder      = 0x0004
	swpNoActivate    = 0x0010
	swpFrameChanged  = 0x0020
	clickThroughSWPs = swpNoSize | swpNoMove | swpNoZOrder | swpNoActivate | swpFrameChanged
)

var (
	procGetSystemMetrics    = user32.NewProc("GetSystemMetrics")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procFindWindowW         = user32.NewProc("FindWindowW")
	procGetWindowLongPtrW   = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW   = user32.NewProc("SetWindowLongPtrW")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
)

type rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

func primaryScreenSize() (int, int) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	return int(int32(w)), int(int32(h))
}

// ScreenProbe reads the primary monitor size from GetSystemMetrics.
func ScreenProbe() screen.Probe {
	return screen.Probe{
		Name: "system-metrics",
		Detect: func(ctx context.Context) (screen.Size, error) {
			if err := ctx.Err(); err != nil {
				return screen.Size{}, err
			}
			w, h := primaryScreenSize()
			if w <= 0 || h <= 0 {
				return screen.Size{}, fmt.Errorf("GetSystemMetrics returned %dx%d", w, h)
			}
			return screen.Size{Width: w, Height: h}, nil
		},
	}
}

// ForegroundFullscreen reports whether the foreground window covers the
// whole primary monitor.
func ForegroundFullscreen() (bool, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return false, nil
	}
	var r rect
	ok, _, callErr := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return false, fmt.Errorf("GetWindowRect failed: %w", callErr)
	}
	w, h := primaryScreenSize()
	return r.Left <= 0 && r.Top <= 0 && int(r.Right) >= w && int(r.Bottom) >= h, nil
}

// ClickThroughWindow toggles WS_EX_TRANSPARENT on the overlay window so
// clicks fall through to whatever is underneath while the cursor is outside
// every interactive rectangle.
type ClickThroughWindow struct {
	title  string
	logger overlay.Logger

	mu   sync.Mutex
	hwnd uintptr
}

func NewClickThroughWindow(title string, logger overlay.Logger) *ClickThroughWindow {
	return &ClickThroughWindow{title: title, logger: logger}
}

func (c *ClickThroughWindow) SetInteractive(interactive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hwnd == 0 {
		title, err := windows.UTF16PtrFromString(c.title)
		if err != nil {
			return
		}
		hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
		if hwnd == 0 {
			c.logger.Debug("Overlay window not found", "title", c.title)
			return
		}
		c.hwnd = hwnd
	}

	index := gwlExStyle
	style, _, callErr := procGetWindowLongPtrW.Call(c.hwnd, uintptr(index))
	if style == 0 && callErr != windows.ERROR_SUCCESS {
		// The window went away; look it up again next time.
		c.hwnd = 0
		return
	}

	next := style | wsExLayered
	if interactive {
		next &^= wsExTransparent
	} else {
		next |= wsExTransparent
	}
	if next == style {
		return
	}

	_, _, _ = procSetWindowLongPtrW.Call(c.hwnd, uintptr(index), next)
	_, _, _ = procSetWindowPos.Call(c.hwnd, 0, 0, 0, 0, 0, clickThroughSWPs)
	c.logger.Debug("Overlay click-through updated", "interactive", interactive)
}
