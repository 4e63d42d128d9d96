package overlay

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestMarshalEventWireFormat(t *testing.T) {
	tests := []struct {
		ev   OutputEvent
		want string
	}{
		{ev: CursorMoved{X: 12, Y: 34}, want: `{"type":"cursor","x":12,"y":34}`},
		{ev: Shortcut{Name: ShortcutToggleChat}, want: `{"type":"shortcut","name":"toggle_chat"}`},
		{ev: Click{Button: "right", X: 1, Y: 2}, want: `{"type":"click","button":"right","x":1,"y":2}`},
		{ev: Heartbeat{}, want: `{"type":"heartbeat"}`},
		{ev: Activity{}, want: `{"type":"activity"}`},
		{
			ev:   Ready{MiceCount: 2, KeyboardsCount: 1, ScreenWidth: 1920, ScreenHeight: 1080},
			want: `{"type":"ready","mice_count":2,"keyboards_count":1,"screen_width":1920,"screen_height":1080}`,
		},
		{ev: Failure{Message: "denied"}, want: `{"type":"error","message":"denied"}`},
	}

	for _, tc := range tests {
		got, err := MarshalEvent(tc.ev)
		if err != nil {
			t.Fatalf("MarshalEvent(%T) error = %v", tc.ev, err)
		}
		if string(got) != tc.want {
			t.Fatalf("MarshalEvent(%T)=%s, want %s", tc.ev, got, tc.want)
		}
	}

	if _, err := MarshalEvent(nil); err == nil {
		t.Fatalf("MarshalEvent(nil) expected error")
	}
}

func TestJSONLinesEmitterWritesAndFlushes(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriterSize(&buf, 4096)
	emitter := NewJSONLinesEmitter(w, noopLogger{})

	emitter.Emit(Heartbeat{})
	if buf.String() != "{\"type\":\"heartbeat\"}\n" {
		t.Fatalf("output after first event = %q", buf.String())
	}

	emitter.Emit(CursorMoved{X: 1, Y: 1})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestJSONLinesEmitterDropsOnWriteFailure(t *testing.T) {
	emitter := NewJSONLinesEmitter(failingWriter{}, noopLogger{})
	emitter.Emit(Activity{})
}

func TestMultiEmitterPreservesOrder(t *testing.T) {
	first := &recordingEmitter{}
	var order []string
	multi := MultiEmitter{
		first,
		EmitterFunc(func(ev OutputEvent) { order = append(order, ev.EventType()) }),
	}

	multi.Emit(Activity{})
	multi.Emit(Heartbeat{})

	if len(first.snapshot()) != 2 {
		t.Fatalf("first emitter got %d events, want 2", len(first.snapshot()))
	}
	if strings.Join(order, ",") != "activity,heartbeat" {
		t.Fatalf("order = %v", order)
	}
}
