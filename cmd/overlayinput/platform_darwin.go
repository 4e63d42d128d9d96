//go:build darwin

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"overlayinput/internal/adapters/macinput"
	"overlayinput/internal/core/overlay"
	"overlayinput/internal/screen"
	"overlayinput/internal/transport/wsfeed"
)

func screenProbes() []screen.Probe {
	return []screen.Probe{macinput.ScreenProbe(), screen.DisplayProbe()}
}

// fullscreenChecker always reports false: there is no public API for the
// frontmost window's fullscreen state without Accessibility queries.
func fullscreenChecker() (wsfeed.FullscreenFunc, func()) {
	return func() (bool, error) { return false, nil }, func() {}
}

func engineOptions(cfg config, logger *slog.Logger) []overlay.Option {
	if cfg.overlayWindow != "" || cfg.deviceGlob != "" {
		logger.Warn("--overlay-window and --device-glob are ignored on macOS")
	}
	return nil
}

// runCapture keeps the event tap's run loop and every Wait on one OS thread.
func runCapture(ctx context.Context, _ config, engine *overlay.Engine, logger *slog.Logger) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tap, err := macinput.Open(logger)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, tap.Interrupt)
	defer stop()

	return engine.Run(ctx, tap)
}

func listInputDevices(_ config, out io.Writer) error {
	fmt.Fprintln(out, "session event tap: merged pointer and keyboard stream")
	return nil
}

func permissionDeniedHint(err error) string {
	if errors.Is(err, macinput.ErrAccessibilityDenied) {
		return "Grant Accessibility and Input Monitoring permission to this binary in System Settings > Privacy & Security, then restart it."
	}
	return ""
}
