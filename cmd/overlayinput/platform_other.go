//go:build !linux && !windows && !darwin

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"overlayinput/internal/core/overlay"
	"overlayinput/internal/screen"
	"overlayinput/internal/transport/wsfeed"
)

func screenProbes() []screen.Probe {
	return []screen.Probe{screen.DisplayProbe()}
}

func fullscreenChecker() (wsfeed.FullscreenFunc, func()) {
	return nil, func() {}
}

func engineOptions(_ config, _ *slog.Logger) []overlay.Option {
	return nil
}

func runCapture(_ context.Context, _ config, _ *overlay.Engine, _ *slog.Logger) error {
	return fmt.Errorf("global input capture is not supported on this platform")
}

func listInputDevices(_ config, _ io.Writer) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func permissionDeniedHint(_ error) string {
	return ""
}
