//go:build darwin

package macinput

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>
*/
import "C"

import (
	"context"
	"fmt"

	"overlayinput/internal/screen"
)

// ScreenProbe reads the main display size from CoreGraphics.
func ScreenProbe() screen.Probe {
	return screen.Probe{
		Name: "coregraphics",
		Detect: func(ctx context.Context) (screen.Size, error) {
			if err := ctx.Err(); err != nil {
				return screen.Size{}, err
			}
			id := C.CGMainDisplayID()
			size := screen.Size{
				Width:  int(C.CGDisplayPixelsWide(id)),
				Height: int(C.CGDisplayPixelsHigh(id)),
			}
			if !size.Valid() {
				return screen.Size{}, fmt.Errorf("CGDisplayPixels returned %s", size)
			}
			return size, nil
		},
	}
}
