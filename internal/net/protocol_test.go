package net

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"redraw/internal/state"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Message
	}{
		{
			name: "init",
			in:   `{"type":"init","clientId":"c1","state":{"elements":[],"texts":[]}}`,
			want: Message{Type: TypeInit, ClientID: "c1", State: state.Snapshot{Elements: []state.Element{}, Texts: []state.TextItem{}}},
		},
		{
			name: "state_sync",
			in:   `{"type":"state_sync","boardId":"b","state":{"elements":[{"id":"e","tool":"line","x":1,"y":2,"endX":3,"endY":4,"seed":7}]}}`,
			want: Message{Type: TypeStateSync, BoardID: "b", State: state.Snapshot{Elements: []state.Element{
				{ID: "e", Tool: state.ToolLine, X: 1, Y: 2, EndX: 3, EndY: 4, Seed: 7},
			}}},
		},
		{
			name: "cursor",
			in:   `{"type":"cursor","clientId":"p","x":0,"y":12.5}`,
			want: Message{Type: TypeCursor, ClientID: "p", Point: state.Point{X: 0, Y: 12.5}},
		},
		{
			name: "cursor leave",
			in:   `{"type":"cursor_leave","clientId":"p"}`,
			want: Message{Type: TypeCursorLeave, ClientID: "p"},
		},
		{
			name: "clear",
			in:   `{"type":"clear"}`,
			want: Message{Type: TypeClear},
		},
		{
			name: "delete",
			in:   `{"type":"delete","ids":["a","b"]}`,
			want: Message{Type: TypeDelete, IDs: []string{"a", "b"}},
		},
		{
			name: "bare element",
			in:   `{"id":"r","tool":"rectangle","x":5,"width":10,"height":10,"text":{"content":"hi","textAlign":"center"}}`,
			want: Message{Type: TypeElement, Element: state.Element{
				ID: "r", Tool: state.ToolRectangle, X: 5, Width: 10, Height: 10,
				Text: &state.Label{Content: "hi", TextStyle: state.TextStyle{TextAlign: "center"}},
			}},
		},
		{
			name: "unknown type is kept",
			in:   `{"type":"presence","clientId":"p"}`,
			want: Message{Type: "presence", ClientID: "p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`{"type":"init"}`,
		`{"type":"cursor","clientId":"p","x":1}`,
		`{"type":"cursor_leave"}`,
		`{"id":"x","tool":"text"}`,
		`{"tool":"rectangle"}`,
		`{}`,
	} {
		if _, err := Decode([]byte(in)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%s) err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{Clear(), `{"type":"clear"}`},
		{Delete(nil), `{"type":"delete","ids":[]}`},
		{Cursor(state.Point{X: 0, Y: 3}), `{"type":"cursor","x":0,"y":3}`},
		{CursorLeave("p"), `{"type":"cursor_leave","clientId":"p"}`},
		{StateSync("b1", state.Snapshot{}), `{"type":"state_sync","boardId":"b1","state":{"elements":[],"texts":[]}}`},
	}
	for _, tt := range tests {
		got, err := Encode(tt.msg)
		if err != nil {
			t.Fatalf("Encode(%s): %v", tt.msg.Type, err)
		}
		if string(got) != tt.want {
			t.Errorf("Encode(%s) = %s, want %s", tt.msg.Type, got, tt.want)
		}
	}
}

func TestElementFrameRoundTrip(t *testing.T) {
	el := state.Element{
		ID: "p1", Tool: state.ToolPen, StrokeStyle: state.StrokeDotted,
		PenPath: []state.Point{{X: 1, Y: 1}, {X: 2, Y: 3}}, Seed: state.SeedFor("p1"),
	}
	data, err := Encode(ElementMessage(el))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.Type != TypeElement {
		t.Fatalf("type = %s", m.Type)
	}
	if diff := cmp.Diff(el, m.Element); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
