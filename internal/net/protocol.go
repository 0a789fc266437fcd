package net

import (
	"encoding/json"
	"errors"
	"fmt"

	"redraw/internal/state"
)

// Type is the "type" field of a frame. Element frames carry no type on the
// wire; they are recognised by their id and tool.
type Type string

const (
	TypeInit        Type = "init"
	TypeStateSync   Type = "state_sync"
	TypeCursor      Type = "cursor"
	TypeCursorLeave Type = "cursor_leave"
	TypeClear       Type = "clear"
	TypeDelete      Type = "delete"
	TypeElement     Type = "element"
)

var (
	// ErrMalformed is returned for frames that cannot be decoded.
	ErrMalformed = errors.New("malformed frame")
	// ErrNotConnected is returned when sending while the connection is down.
	// The frame is dropped.
	ErrNotConnected = errors.New("not connected")
)

// Message is one decoded frame. Which fields are meaningful depends on Type.
type Message struct {
	Type     Type
	ClientID string
	BoardID  string
	State    state.Snapshot
	IDs      []string
	Point    state.Point
	Label    string
	Element  state.Element
}

type envelope struct {
	Type     Type            `json:"type,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	BoardID  string          `json:"boardId,omitempty"`
	State    *state.Snapshot `json:"state,omitempty"`
	IDs      []string        `json:"ids,omitempty"`
	X        *float64        `json:"x,omitempty"`
	Y        *float64        `json:"y,omitempty"`
	Label    string          `json:"label,omitempty"`

	// element sniffing
	ID   string     `json:"id,omitempty"`
	Tool state.Tool `json:"tool,omitempty"`
}

// Decode parses a frame. Frames of an unknown type decode without error and
// keep their type so the caller can ignore them.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	m := Message{
		Type:     env.Type,
		ClientID: env.ClientID,
		BoardID:  env.BoardID,
		IDs:      env.IDs,
		Label:    env.Label,
	}

	switch env.Type {
	case TypeInit, TypeStateSync:
		if env.State == nil {
			return Message{}, fmt.Errorf("%w: %s without state", ErrMalformed, env.Type)
		}
		m.State = *env.State
	case TypeCursor:
		if env.X == nil || env.Y == nil {
			return Message{}, fmt.Errorf("%w: cursor without position", ErrMalformed)
		}
		m.Point = state.Point{X: *env.X, Y: *env.Y}
	case TypeCursorLeave:
		if env.ClientID == "" {
			return Message{}, fmt.Errorf("%w: cursor_leave without clientId", ErrMalformed)
		}
	case TypeClear, TypeDelete:
	case "", TypeElement:
		if env.ID == "" || !env.Tool.IsElementKind() {
			return Message{}, fmt.Errorf("%w: untyped frame is not an element", ErrMalformed)
		}
		if err := json.Unmarshal(data, &m.Element); err != nil {
			return Message{}, fmt.Errorf("%w: element: %v", ErrMalformed, err)
		}
		m.Type = TypeElement
	}
	return m, nil
}

// Encode renders a message in wire form. Elements are sent bare.
func Encode(m Message) ([]byte, error) {
	switch m.Type {
	case TypeElement:
		return json.Marshal(m.Element)
	case TypeDelete:
		ids := m.IDs
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(struct {
			Type Type     `json:"type"`
			IDs  []string `json:"ids"`
		}{m.Type, ids})
	}

	env := envelope{
		Type:     m.Type,
		ClientID: m.ClientID,
		BoardID:  m.BoardID,
		IDs:      m.IDs,
		Label:    m.Label,
	}
	switch m.Type {
	case TypeInit, TypeStateSync:
		snap := m.State
		if snap.Elements == nil {
			snap.Elements = []state.Element{}
		}
		if snap.Texts == nil {
			snap.Texts = []state.TextItem{}
		}
		env.State = &snap
	case TypeCursor:
		x, y := m.Point.X, m.Point.Y
		env.X, env.Y = &x, &y
	}
	return json.Marshal(env)
}

func StateSync(boardID string, snap state.Snapshot) Message {
	return Message{Type: TypeStateSync, BoardID: boardID, State: snap}
}

func Init(clientID string, snap state.Snapshot) Message {
	return Message{Type: TypeInit, ClientID: clientID, State: snap}
}

func ElementMessage(e state.Element) Message {
	return Message{Type: TypeElement, Element: e}
}

func Delete(ids []string) Message {
	return Message{Type: TypeDelete, IDs: ids}
}

func Clear() Message {
	return Message{Type: TypeClear}
}

// Cursor is a pointer position. The relay fills in ClientID before fanning
// it out.
func Cursor(p state.Point) Message {
	return Message{Type: TypeCursor, Point: p}
}

func CursorLeave(clientID string) Message {
	return Message{Type: TypeCursorLeave, ClientID: clientID}
}
