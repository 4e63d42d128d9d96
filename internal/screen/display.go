package screen

import (
	"context"
	"fmt"

	"github.com/kbinani/screenshot"
)

// DisplayProbe reads the bounds of the first active display through the
// screenshot library's display enumeration.
func DisplayProbe() Probe {
	return Probe{
		Name: "display-bounds",
		Detect: func(ctx context.Context) (Size, error) {
			if err := ctx.Err(); err != nil {
				return Size{}, err
			}
			n := screenshot.NumActiveDisplays()
			if n <= 0 {
				return Size{}, fmt.Errorf("no active displays")
			}
			bounds := screenshot.GetDisplayBounds(0)
			return Size{Width: bounds.Dx(), Height: bounds.Dy()}, nil
		},
	}
}
