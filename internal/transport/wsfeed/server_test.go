package wsfeed

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"overlayinput/internal/core/overlay"

	"github.com/gorilla/websocket"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func newTestServer(t *testing.T, fullscreen FullscreenFunc) (*Server, *overlay.SharedState, *websocket.Conn) {
	t.Helper()

	state := overlay.NewSharedState(800, 600)
	srv, err := NewServer(state, fullscreen, noopLogger{})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, state, conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, command string) string {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(command)); err != nil {
		t.Fatalf("WriteMessage() error: %v", err)
	}
	return readMessage(t, conn)
}

func readMessage(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}
	return string(data)
}

func TestCheckFullscreenReply(t *testing.T) {
	_, _, conn := newTestServer(t, func() (bool, error) { return true, nil })

	if got := roundTrip(t, conn, `{"cmd":"check_fullscreen"}`); got != `{"type":"fullscreen","value":true}` {
		t.Fatalf("reply=%s", got)
	}
}

func TestCheckFullscreenErrorReportsFalse(t *testing.T) {
	_, _, conn := newTestServer(t, func() (bool, error) { return true, errors.New("no display") })

	if got := roundTrip(t, conn, `{"cmd":"check_fullscreen"}`); got != `{"type":"fullscreen","value":false}` {
		t.Fatalf("reply=%s", got)
	}
}

func TestSyncCursorAndBoundsUpdateSharedState(t *testing.T) {
	_, state, conn := newTestServer(t, nil)

	commands := []string{
		`{"cmd":"sync_cursor","x":5000,"y":12}`,
		`{"cmd":"update_interactive_bounds","rects":[{"x":0,"y":0,"width":10,"height":10}]}`,
	}
	for _, cmd := range commands {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
			t.Fatalf("WriteMessage() error: %v", err)
		}
	}
	// Commands are handled in order, so a reply to a later one means the
	// earlier ones were applied.
	roundTrip(t, conn, `{"cmd":"check_fullscreen"}`)

	if got, want := state.Cursor(), (overlay.Point{X: 799, Y: 12}); got != want {
		t.Fatalf("Cursor()=%v, want %v", got, want)
	}
	want := []overlay.Rect{{X: 0, Y: 0, Width: 10, Height: 10}}
	if got := state.InteractiveRects(); !reflect.DeepEqual(got, want) {
		t.Fatalf("InteractiveRects()=%v, want %v", got, want)
	}
}

func TestInvalidCommandsGetErrorReplies(t *testing.T) {
	_, _, conn := newTestServer(t, nil)

	tests := []struct {
		command string
		want    string
	}{
		{`{"cmd":"explode"}`, `{"type":"command_error","message":"unknown command \"explode\""}`},
		{`{"cmd":"sync_cursor","x":1}`, `{"type":"command_error","message":"sync_cursor requires x and y"}`},
		{`{}`, `{"type":"command_error","message":"missing cmd"}`},
	}
	for _, tc := range tests {
		if got := roundTrip(t, conn, tc.command); got != tc.want {
			t.Fatalf("reply to %s=%s, want %s", tc.command, got, tc.want)
		}
	}

	if got := roundTrip(t, conn, `not json`); !strings.HasPrefix(got, `{"type":"command_error","message":"invalid command`) {
		t.Fatalf("reply to malformed command=%s", got)
	}
}

func TestEmitBroadcastsToClients(t *testing.T) {
	srv, _, conn := newTestServer(t, nil)
	roundTrip(t, conn, `{"cmd":"check_fullscreen"}`)

	if got := srv.ClientCount(); got != 1 {
		t.Fatalf("ClientCount()=%d, want 1", got)
	}

	srv.Emit(overlay.CursorMoved{X: 3, Y: 4})
	srv.Emit(overlay.Shortcut{Name: overlay.ShortcutToggleDrag})

	if got := readMessage(t, conn); got != `{"type":"cursor","x":3,"y":4}` {
		t.Fatalf("first event=%s", got)
	}
	if got := readMessage(t, conn); got != `{"type":"shortcut","name":"toggle_drag"}` {
		t.Fatalf("second event=%s", got)
	}
}

func TestLateClientReceivesReadyFirst(t *testing.T) {
	srv, err := NewServer(overlay.NewSharedState(800, 600), nil, noopLogger{})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)

	srv.Emit(overlay.Ready{MiceCount: 1, KeyboardsCount: 1, ScreenWidth: 640, ScreenHeight: 480})
	srv.Emit(overlay.Ready{MiceCount: 0, KeyboardsCount: 2, ScreenWidth: 800, ScreenHeight: 600})
	srv.Emit(overlay.Heartbeat{})

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	want := `{"type":"ready","mice_count":0,"keyboards_count":2,"screen_width":800,"screen_height":600}`
	if got := readMessage(t, conn); got != want {
		t.Fatalf("first message=%s, want %s", got, want)
	}

	srv.Emit(overlay.Heartbeat{})
	if got := readMessage(t, conn); got != `{"type":"heartbeat"}` {
		t.Fatalf("second message=%s, want heartbeat", got)
	}
}

func TestEmitNeverBlocksOnFullQueue(t *testing.T) {
	srv, err := NewServer(overlay.NewSharedState(10, 10), nil, noopLogger{})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	stalled := &client{send: make(chan []byte, 1), done: make(chan struct{})}
	srv.clients[stalled] = struct{}{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			srv.Emit(overlay.Heartbeat{})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Emit blocked on a full client queue")
	}
	if got := len(stalled.send); got != 1 {
		t.Fatalf("queued=%d, want 1", got)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, err := NewServer(overlay.NewSharedState(10, 10), nil, noopLogger{})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- srv.Serve(ctx, listener) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+listener.Addr().String()+"/", nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Serve() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve() did not return after cancel")
	}
}

func TestNewServerValidation(t *testing.T) {
	if _, err := NewServer(nil, nil, noopLogger{}); err == nil {
		t.Fatalf("NewServer(nil state) expected error")
	}
	if _, err := NewServer(overlay.NewSharedState(1, 1), nil, nil); err == nil {
		t.Fatalf("NewServer(nil logger) expected error")
	}
}
