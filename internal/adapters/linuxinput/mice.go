package linuxinput

import (
	"fmt"
	"strings"

	"overlayinput/internal/core/overlay"
)

// DefaultMicePath is the kernel's aggregated PS/2-style stream of every
// mouse on the system.
const DefaultMicePath = "/dev/input/mice"

const (
	micePacketSize = 3

	miceLeft   = 0x01
	miceRight  = 0x02
	miceMiddle = 0x04
	miceSync   = 0x08
)

type LegacyMiceMode string

const (
	// LegacyMiceAuto opens the aggregated stream only when no evdev mouse
	// could be opened, so motion is never counted twice.
	LegacyMiceAuto   LegacyMiceMode = "auto"
	LegacyMiceAlways LegacyMiceMode = "always"
	LegacyMiceNever  LegacyMiceMode = "never"
)

func ParseLegacyMiceMode(value string) (LegacyMiceMode, error) {
	mode := LegacyMiceMode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case "":
		return LegacyMiceAuto, nil
	case LegacyMiceAuto, LegacyMiceAlways, LegacyMiceNever:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid legacy mice mode %q (expected auto|always|never)", value)
	}
}

// miceDecoder turns the 3-byte packet stream into motion and button
// transitions. Reads may split packets, so a partial packet is carried over
// to the next call.
type miceDecoder struct {
	buttons byte
	pending []byte
}

var miceButtons = [...]struct {
	mask   byte
	button overlay.Button
}{
	{miceLeft, overlay.ButtonLeft},
	{miceRight, overlay.ButtonRight},
	{miceMiddle, overlay.ButtonMiddle},
}

func (d *miceDecoder) decode(data []byte, out []overlay.RawEvent) []overlay.RawEvent {
	buf := append(d.pending, data...)
	for len(buf) >= micePacketSize {
		if buf[0]&miceSync == 0 {
			// Out of step with the packet framing; skip a byte and retry.
			buf = buf[1:]
			continue
		}
		out = d.decodePacket(buf[0], buf[1], buf[2], out)
		buf = buf[micePacketSize:]
	}
	d.pending = append(d.pending[:0], buf...)
	return out
}

func (d *miceDecoder) decodePacket(flags, rawDX, rawDY byte, out []overlay.RawEvent) []overlay.RawEvent {
	dx := int(int8(rawDX))
	dy := -int(int8(rawDY))
	if dx != 0 || dy != 0 {
		out = append(out, overlay.RelativeMotion(overlay.SourceMouse, dx, dy))
	}

	changed := (flags ^ d.buttons) & (miceLeft | miceRight | miceMiddle)
	for _, b := range miceButtons {
		if changed&b.mask == 0 {
			continue
		}
		transition := overlay.Released
		if flags&b.mask != 0 {
			transition = overlay.Pressed
		}
		out = append(out, overlay.ButtonEvent(overlay.SourceMouse, b.button, transition))
	}
	d.buttons = flags & (miceLeft | miceRight | miceMiddle)
	return out
}
