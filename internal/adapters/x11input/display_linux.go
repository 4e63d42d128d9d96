//go:build linux

package x11input

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"overlayinput/internal/screen"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

const stateFullscreen = "_NET_WM_STATE_FULLSCREEN"

// Display is a connection to the X server (or XWayland) used for geometry
// and window-state queries. It never grabs input.
type Display struct {
	mu   sync.Mutex
	xu   *xgbutil.XUtil
	conn *xgb.Conn
	root xproto.Window
}

func Connect() (*Display, error) {
	if strings.TrimSpace(os.Getenv("DISPLAY")) == "" {
		return nil, fmt.Errorf("DISPLAY is not set")
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}
	return &Display{xu: xu, conn: conn, root: xu.RootWin()}, nil
}

func (d *Display) ScreenSize() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := d.xu.Screen()
	return int(info.WidthInPixels), int(info.HeightInPixels)
}

// ActiveWindowFullscreen reports whether the focused window is fullscreen,
// either by its EWMH state or because its geometry covers the root window.
func (d *Display) ActiveWindowFullscreen() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	win, err := ewmh.ActiveWindowGet(d.xu)
	if err != nil {
		return false, err
	}
	if win == 0 || win == d.root {
		return false, nil
	}

	if states, err := ewmh.WmStateGet(d.xu, win); err == nil {
		for _, state := range states {
			if state == stateFullscreen {
				return true, nil
			}
		}
	}

	geom, err := xproto.GetGeometry(d.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return false, err
	}
	info := d.xu.Screen()
	return geom.Width >= info.WidthInPixels && geom.Height >= info.HeightInPixels, nil
}

func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// ScreenProbe reads the root window size from the X server.
func ScreenProbe() screen.Probe {
	return screen.Probe{
		Name: "x11-root",
		Detect: func(ctx context.Context) (screen.Size, error) {
			if err := ctx.Err(); err != nil {
				return screen.Size{}, err
			}
			d, err := Connect()
			if err != nil {
				return screen.Size{}, err
			}
			defer d.Close()
			w, h := d.ScreenSize()
			return screen.Size{Width: w, Height: h}, nil
		},
	}
}

// FullscreenChecker connects lazily and keeps the connection for later
// checks. Without an X server every check reports false.
type FullscreenChecker struct {
	mu      sync.Mutex
	display *Display
}

func (c *FullscreenChecker) Fullscreen() (bool, error) {
	c.mu.Lock()
	if c.display == nil {
		d, err := Connect()
		if err != nil {
			c.mu.Unlock()
			return false, err
		}
		c.display = d
	}
	d := c.display
	c.mu.Unlock()

	full, err := d.ActiveWindowFullscreen()
	if err != nil {
		c.reset(d)
	}
	return full, err
}

func (c *FullscreenChecker) reset(d *Display) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.display == d {
		c.display.Close()
		c.display = nil
	}
}

func (c *FullscreenChecker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.display != nil {
		c.display.Close()
		c.display = nil
	}
}
