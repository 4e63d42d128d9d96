package screen

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RandrProbe runs a randr-style helper (xrandr, wlr-randr) and parses the
// first mode from its output. A missing or failing helper is reported as an
// error so the next probe is tried.
func RandrProbe(command string, args ...string) Probe {
	return Probe{
		Name: command,
		Detect: func(ctx context.Context) (Size, error) {
			if _, err := exec.LookPath(command); err != nil {
				return Size{}, err
			}
			out, err := exec.CommandContext(ctx, command, args...).Output()
			if err != nil {
				return Size{}, fmt.Errorf("%s failed: %w", command, err)
			}
			size, ok := ParseRandr(string(out))
			if !ok {
				return Size{}, fmt.Errorf("%s output has no mode", command)
			}
			return size, nil
		},
	}
}

// ParseRandr returns the first WIDTHxHEIGHT token found on a line that
// mentions " connected" or "current". wlr-randr prints the active mode as
// "1920x1080 px, 60.000000 Hz (current)"; xrandr prints
// "HDMI-1 connected primary 2560x1440+0+0 ...".
func ParseRandr(output string) (Size, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, " connected") && !strings.Contains(line, "current") {
			continue
		}
		for _, field := range strings.Fields(line) {
			if size, ok := parseModeToken(field); ok {
				return size, true
			}
		}
	}
	return Size{}, false
}

// parseModeToken accepts "1920x1080", "1920x1080+0+0" and "1920x1080,".
func parseModeToken(token string) (Size, bool) {
	token = strings.TrimRight(token, ",")
	if i := strings.IndexByte(token, '+'); i >= 0 {
		token = token[:i]
	}
	w, h, ok := strings.Cut(token, "x")
	if !ok || w == "" || h == "" {
		return Size{}, false
	}
	width, okW := parseDigits(w)
	height, okH := parseDigits(h)
	if !okW || !okH {
		return Size{}, false
	}
	size := Size{Width: width, Height: height}
	return size, size.Valid()
}

func parseDigits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1<<20 {
			return 0, false
		}
	}
	return n, true
}
