// Package screen determines the size of the primary display. Detection never
// fails: an explicit override wins, then each platform probe is tried in
// order, and the fixed default is used when every probe fails.
package screen

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"overlayinput/internal/core/overlay"
)

const (
	DefaultWidth  = 1920
	DefaultHeight = 1080

	probeTimeout = 2 * time.Second
)

type Size struct {
	Width  int
	Height int
}

func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Probe is one way of asking the platform for the screen size.
type Probe struct {
	Name   string
	Detect func(ctx context.Context) (Size, error)
}

type Detector struct {
	Override Size
	Probes   []Probe
	Logger   overlay.Logger
}

// Detect returns a size with both dimensions positive.
func (d Detector) Detect(ctx context.Context) Size {
	if d.Override.Valid() {
		d.Logger.Info("Screen size from override", "size", d.Override.String())
		return d.Override
	}

	for _, probe := range d.Probes {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		size, err := probe.Detect(probeCtx)
		cancel()
		if err != nil {
			d.Logger.Debug("Screen probe failed", "probe", probe.Name, "err", err)
			continue
		}
		if !size.Valid() {
			d.Logger.Debug("Screen probe returned invalid size", "probe", probe.Name, "size", size.String())
			continue
		}
		d.Logger.Info("Screen size detected", "probe", probe.Name, "size", size.String())
		return size
	}

	fallback := Size{Width: DefaultWidth, Height: DefaultHeight}
	d.Logger.Warn("Screen size unavailable, using default", "size", fallback.String())
	return fallback
}

// EnvOverride reads SCREEN_WIDTH and SCREEN_HEIGHT. Both must be set to
// positive integers for the override to apply.
func EnvOverride(getenv func(string) string) (Size, bool) {
	if getenv == nil {
		getenv = os.Getenv
	}
	width, errW := strconv.Atoi(strings.TrimSpace(getenv("SCREEN_WIDTH")))
	height, errH := strconv.Atoi(strings.TrimSpace(getenv("SCREEN_HEIGHT")))
	if errW != nil || errH != nil {
		return Size{}, false
	}
	size := Size{Width: width, Height: height}
	return size, size.Valid()
}

// ParseSize parses "WIDTHxHEIGHT".
func ParseSize(value string) (Size, error) {
	raw := strings.ToLower(strings.TrimSpace(value))
	w, h, ok := strings.Cut(raw, "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid screen size %q (expected WIDTHxHEIGHT)", value)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Size{}, fmt.Errorf("invalid screen width in %q: %w", value, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Size{}, fmt.Errorf("invalid screen height in %q: %w", value, err)
	}
	size := Size{Width: width, Height: height}
	if !size.Valid() {
		return Size{}, fmt.Errorf("screen size %q must be positive", value)
	}
	return size, nil
}
