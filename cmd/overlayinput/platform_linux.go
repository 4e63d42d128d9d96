//go:build linux

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"overlayinput/internal/adapters/linuxinput"
	"overlayinput/internal/adapters/x11input"
	"overlayinput/internal/core/overlay"
	"overlayinput/internal/screen"
	"overlayinput/internal/transport/wsfeed"
)

// linuxSession reports "wayland" or "x11" from the session environment.
func linuxSession() string {
	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	switch sessionType {
	case "wayland", "x11":
		return sessionType
	}
	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return "wayland"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "wayland"
}

func screenProbes() []screen.Probe {
	xrandr := screen.RandrProbe("xrandr", "--current")
	wlrRandr := screen.RandrProbe("wlr-randr")

	probes := []screen.Probe{xrandr, wlrRandr}
	if linuxSession() == "wayland" {
		probes = []screen.Probe{wlrRandr, xrandr}
	}
	return append(probes, x11input.ScreenProbe(), screen.DisplayProbe())
}

func fullscreenChecker() (wsfeed.FullscreenFunc, func()) {
	checker := &x11input.FullscreenChecker{}
	return checker.Fullscreen, checker.Close
}

func engineOptions(cfg config, logger *slog.Logger) []overlay.Option {
	if cfg.overlayWindow != "" {
		logger.Warn("--overlay-window is only used on Windows")
	}
	return nil
}

func runCapture(ctx context.Context, cfg config, engine *overlay.Engine, logger *slog.Logger) error {
	mux, err := linuxinput.Open(linuxinput.Config{
		DeviceGlob: cfg.deviceGlob,
		LegacyMice: cfg.legacyMice,
	}, logger)
	if err != nil {
		return err
	}
	logger.Debug("Input sources", "summary", mux.Describe())
	return engine.Run(ctx, mux)
}

func listInputDevices(cfg config, out io.Writer) error {
	devices, err := linuxinput.ListInputDevices(cfg.deviceGlob)
	if err != nil {
		return err
	}
	for _, dev := range devices {
		virtualTag := "physical"
		if dev.IsVirtual {
			virtualTag = "virtual"
		}
		classTag := "ignored"
		if dev.Class != 0 {
			classTag = dev.Class.String()
		}
		fmt.Fprintf(out, "%s: %s [%s, %s]\n", dev.Path, dev.Name, virtualTag, classTag)
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, linuxinput.DiagnosePermissions().Hint())
	}
	return nil
}

func permissionDeniedHint(err error) string {
	if isPermissionError(err) {
		return linuxinput.DiagnosePermissions().Hint()
	}
	return ""
}
