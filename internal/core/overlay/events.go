package overlay

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OutputEvent is one semantic event delivered to the overlay frontend.
type OutputEvent interface {
	EventType() string
}

type CursorMoved struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Shortcut struct {
	Name string `json:"name"`
}

type Click struct {
	Button string `json:"button"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type Heartbeat struct{}

type Ready struct {
	MiceCount      int `json:"mice_count"`
	KeyboardsCount int `json:"keyboards_count"`
	ScreenWidth    int `json:"screen_width"`
	ScreenHeight   int `json:"screen_height"`
}

type Activity struct{}

// Failure is the terminal event sent when capture could not start.
type Failure struct {
	Message string `json:"message"`
}

func (CursorMoved) EventType() string { return "cursor" }
func (Shortcut) EventType() string    { return "shortcut" }
func (Click) EventType() string       { return "click" }
func (Heartbeat) EventType() string   { return "heartbeat" }
func (Ready) EventType() string       { return "ready" }
func (Activity) EventType() string    { return "activity" }
func (Failure) EventType() string     { return "error" }

// MarshalEvent encodes ev as a single JSON object tagged with its "type".
func MarshalEvent(ev OutputEvent) ([]byte, error) {
	switch ev := ev.(type) {
	case CursorMoved:
		return json.Marshal(struct {
			Type string `json:"type"`
			CursorMoved
		}{ev.EventType(), ev})
	case Shortcut:
		return json.Marshal(struct {
			Type string `json:"type"`
			Shortcut
		}{ev.EventType(), ev})
	case Click:
		return json.Marshal(struct {
			Type string `json:"type"`
			Click
		}{ev.EventType(), ev})
	case Ready:
		return json.Marshal(struct {
			Type string `json:"type"`
			Ready
		}{ev.EventType(), ev})
	case Failure:
		return json.Marshal(struct {
			Type string `json:"type"`
			Failure
		}{ev.EventType(), ev})
	case Heartbeat, Activity:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{ev.EventType()})
	case nil:
		return nil, fmt.Errorf("nil event")
	default:
		return nil, fmt.Errorf("unsupported event type %T", ev)
	}
}
