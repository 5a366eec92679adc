package interact

import (
	"fmt"

	"github.com/msalah0e/skilltree/internal/geom"
)

// Event is one input event. The concrete types are PointerDown,
// PointerMove, PointerUp, KeyDown and Wheel.
type Event interface {
	event()
}

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Ctrl  bool `json:"ctrl,omitempty"`
	Shift bool `json:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// Command reports Ctrl, or Cmd on macOS.
func (m Modifiers) Command() bool { return m.Ctrl || m.Meta }

type PointerDown struct {
	Screen geom.Point
	Button int
	Mods   Modifiers
}

type PointerMove struct {
	Screen geom.Point
	Mods   Modifiers
}

type PointerUp struct {
	Screen geom.Point
	Mods   Modifiers
}

type KeyDown struct {
	Key  string
	Mods Modifiers
}

// Wheel zooms around Screen; a negative DeltaY zooms in.
type Wheel struct {
	Screen geom.Point
	DeltaY float64
}

func (PointerDown) event() {}
func (PointerMove) event() {}
func (PointerUp) event()   {}
func (KeyDown) event()     {}
func (Wheel) event()       {}

// Wire is the JSON form of an Event, as posted by the browser canvas.
type Wire struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button,omitempty"`
	Key    string  `json:"key,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`
	Modifiers
}

// Event decodes w.
func (w Wire) Event() (Event, error) {
	p := geom.Pt(w.X, w.Y)
	switch w.Type {
	case "pointerdown":
		return PointerDown{Screen: p, Button: w.Button, Mods: w.Modifiers}, nil
	case "pointermove":
		return PointerMove{Screen: p, Mods: w.Modifiers}, nil
	case "pointerup":
		return PointerUp{Screen: p, Mods: w.Modifiers}, nil
	case "keydown":
		if w.Key == "" {
			return nil, fmt.Errorf("keydown without key")
		}
		return KeyDown{Key: w.Key, Mods: w.Modifiers}, nil
	case "wheel":
		return Wheel{Screen: p, DeltaY: w.DeltaY}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", w.Type)
}
