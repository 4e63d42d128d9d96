package wininput

import (
	"errors"

	"overlayinput/internal/core/overlay"
)

// ErrRawInputRegistration means Windows refused the raw-input
// registration, so no global input can be observed.
var ErrRawInputRegistration = errors.New("raw input registration refused")

type DeviceInfo struct {
	Path  string
	Class overlay.SourceClass
}
