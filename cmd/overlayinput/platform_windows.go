//go:build windows

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"overlayinput/internal/adapters/wininput"
	"overlayinput/internal/core/overlay"
	"overlayinput/internal/screen"
	"overlayinput/internal/transport/wsfeed"
)

func screenProbes() []screen.Probe {
	return []screen.Probe{wininput.ScreenProbe(), screen.DisplayProbe()}
}

func fullscreenChecker() (wsfeed.FullscreenFunc, func()) {
	return wininput.ForegroundFullscreen, func() {}
}

func engineOptions(cfg config, logger *slog.Logger) []overlay.Option {
	if cfg.deviceGlob != "" {
		logger.Warn("--device-glob is ignored on Windows; raw input covers every device")
	}
	if cfg.overlayWindow == "" {
		return nil
	}
	return []overlay.Option{
		overlay.WithClickThrough(wininput.NewClickThroughWindow(cfg.overlayWindow, logger)),
	}
}

// runCapture keeps the raw-input window, its message queue and every Wait
// on one OS thread.
func runCapture(ctx context.Context, _ config, engine *overlay.Engine, logger *slog.Logger) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	mux, err := wininput.Open(logger)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, mux.Interrupt)
	defer stop()

	return engine.Run(ctx, mux)
}

func listInputDevices(_ config, out io.Writer) error {
	devices, err := wininput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		fmt.Fprintf(out, "%s [%s]\n", dev.Path, dev.Class.String())
	}
	return nil
}

func permissionDeniedHint(err error) string {
	if errors.Is(err, wininput.ErrRawInputRegistration) || isPermissionError(err) {
		return "Windows refused raw input registration. Run from an interactive desktop session; services and locked-down sessions cannot observe global input."
	}
	return ""
}
