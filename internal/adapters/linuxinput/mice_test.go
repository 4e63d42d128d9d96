package linuxinput

import (
	"reflect"
	"testing"

	"overlayinput/internal/core/overlay"
)

func TestMiceDecoderMotionInvertsY(t *testing.T) {
	var d miceDecoder
	got := d.decode([]byte{miceSync, 5, 0xFE}, nil)

	want := []overlay.RawEvent{overlay.RelativeMotion(overlay.SourceMouse, 5, 2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decode()=%#v, want %#v", got, want)
	}
}

func TestMiceDecoderEmitsButtonTransitionsOnly(t *testing.T) {
	var d miceDecoder
	stream := []byte{
		miceSync | miceLeft, 0, 0,
		miceSync | miceLeft, 1, 0,
		miceSync | miceLeft | miceRight, 0, 0,
		miceSync, 0, 0,
	}
	got := d.decode(stream, nil)

	want := []overlay.RawEvent{
		overlay.ButtonEvent(overlay.SourceMouse, overlay.ButtonLeft, overlay.Pressed),
		overlay.RelativeMotion(overlay.SourceMouse, 1, 0),
		overlay.ButtonEvent(overlay.SourceMouse, overlay.ButtonRight, overlay.Pressed),
		overlay.ButtonEvent(overlay.SourceMouse, overlay.ButtonLeft, overlay.Released),
		overlay.ButtonEvent(overlay.SourceMouse, overlay.ButtonRight, overlay.Released),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decode()=%#v\nwant %#v", got, want)
	}
}

func TestMiceDecoderCarriesPartialPackets(t *testing.T) {
	var d miceDecoder
	if got := d.decode([]byte{miceSync | miceMiddle, 0xFF}, nil); len(got) != 0 {
		t.Fatalf("partial packet decoded early: %#v", got)
	}
	got := d.decode([]byte{0x01, miceSync}, nil)

	want := []overlay.RawEvent{
		overlay.RelativeMotion(overlay.SourceMouse, -1, -1),
		overlay.ButtonEvent(overlay.SourceMouse, overlay.ButtonMiddle, overlay.Pressed),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decode()=%#v, want %#v", got, want)
	}
	if len(d.pending) != 1 {
		t.Fatalf("pending=%d bytes, want 1", len(d.pending))
	}
}

func TestMiceDecoderResynchronises(t *testing.T) {
	var d miceDecoder
	got := d.decode([]byte{0x00, miceSync, 0, 3}, nil)

	want := []overlay.RawEvent{overlay.RelativeMotion(overlay.SourceMouse, 0, -3)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decode()=%#v, want %#v", got, want)
	}
}

func TestParseLegacyMiceMode(t *testing.T) {
	tests := map[string]LegacyMiceMode{
		"":        LegacyMiceAuto,
		"auto":    LegacyMiceAuto,
		" Always": LegacyMiceAlways,
		"never":   LegacyMiceNever,
	}
	for raw, want := range tests {
		got, err := ParseLegacyMiceMode(raw)
		if err != nil {
			t.Fatalf("ParseLegacyMiceMode(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseLegacyMiceMode(%q)=%q, want %q", raw, got, want)
		}
	}
	if _, err := ParseLegacyMiceMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}
