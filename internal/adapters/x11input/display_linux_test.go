//go:build linux

package x11input

import (
	"context"
	"testing"
)

func TestConnectWithoutDisplayFails(t *testing.T) {
	t.Setenv("DISPLAY", "")

	if _, err := Connect(); err == nil {
		t.Fatalf("Connect() without DISPLAY expected error")
	}
	if _, err := ScreenProbe().Detect(context.Background()); err == nil {
		t.Fatalf("ScreenProbe().Detect() without DISPLAY expected error")
	}

	var checker FullscreenChecker
	defer checker.Close()
	full, err := checker.Fullscreen()
	if err == nil || full {
		t.Fatalf("Fullscreen()=%v,%v, want false with error", full, err)
	}
}
