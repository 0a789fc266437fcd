package export

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"redraw/internal/state"
)

type call struct {
	text   string
	pts    []state.Point
	closed bool
	filled bool
	dashed bool
}

type recorder struct{ calls []call }

func (r *recorder) Path(pts []state.Point, closed bool, stroke Stroke, fill *color.NRGBA) {
	r.calls = append(r.calls, call{pts: pts, closed: closed, filled: fill != nil, dashed: stroke.Dash != nil})
}

func (r *recorder) Text(s string, at state.Point, px float64, c color.NRGBA, align Align, middle bool) {
	r.calls = append(r.calls, call{text: s, pts: []state.Point{at}})
}

func element(tool state.Tool) state.Element {
	return state.Element{
		ID: string(tool), Tool: tool, X: 10, Y: 10, Width: 80, Height: 40, EndX: 90, EndY: 50,
		Stroke: "#1e1e1e", StrokeWidth: 2, StrokeStyle: state.StrokeSolid,
		BackgroundColor: "transparent", Opacity: 100,
	}
}

func TestDrawElementShapes(t *testing.T) {
	tests := []struct {
		name   string
		el     func() state.Element
		paths  int
		closed bool
		filled bool
	}{
		{"rectangle", func() state.Element { return element(state.ToolRectangle) }, 1, true, false},
		{"filled ellipse", func() state.Element {
			e := element(state.ToolEllipse)
			e.BackgroundColor = "#ffc9c9"
			return e
		}, 1, true, true},
		{"line", func() state.Element { return element(state.ToolLine) }, 1, false, false},
		{"arrow", func() state.Element { return element(state.ToolArrow) }, 2, false, false},
		{"pen", func() state.Element {
			e := element(state.ToolPen)
			e.PenPath = []state.Point{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 9, Y: 2}}
			return e
		}, 1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			DrawElement(r, tt.el())
			if len(r.calls) != tt.paths {
				t.Fatalf("got %d calls, want %d", len(r.calls), tt.paths)
			}
			if c := r.calls[0]; c.closed != tt.closed || c.filled != tt.filled {
				t.Errorf("closed=%v filled=%v", c.closed, c.filled)
			}
		})
	}
}

func TestDrawArrowHeadIsSolid(t *testing.T) {
	e := element(state.ToolArrow)
	e.StrokeStyle = state.StrokeDashed
	r := &recorder{}
	DrawElement(r, e)
	if !r.calls[0].dashed || r.calls[1].dashed {
		t.Fatalf("shaft dashed=%v head dashed=%v", r.calls[0].dashed, r.calls[1].dashed)
	}
	if got := r.calls[1].pts[1]; got != (state.Point{X: 90, Y: 50}) {
		t.Fatalf("arrow tip = %v", got)
	}
}

func TestDrawRotatesAboutCenter(t *testing.T) {
	e := element(state.ToolLine)
	e.Rotation = math.Pi
	r := &recorder{}
	DrawElement(r, e)

	// Centre is (50, 30): the end points swap under a half turn.
	pts := r.calls[0].pts
	near := func(a, b state.Point) bool { return math.Hypot(a.X-b.X, a.Y-b.Y) < 1e-9 }
	if !near(pts[0], state.Point{X: 90, Y: 50}) || !near(pts[1], state.Point{X: 10, Y: 10}) {
		t.Fatalf("rotated line = %v", pts)
	}
}

func TestDrawLabelAndText(t *testing.T) {
	e := element(state.ToolRectangle)
	e.Text = &state.Label{Content: "hello", TextStyle: state.TextStyle{FontSize: "1rem", Color: "#e03131", Opacity: 100}}
	snap := state.Snapshot{
		Elements: []state.Element{e},
		Texts: []state.TextItem{
			{ID: "t", X: 200, Y: 5, Content: "note", Options: state.TextStyle{Opacity: 100}},
			{ID: "empty", X: 0, Y: 0},
		},
	}
	r := &recorder{}
	Draw(r, snap)
	if len(r.calls) != 3 {
		t.Fatalf("calls = %d, want shape, label and one text", len(r.calls))
	}
	if r.calls[1].text != "hello" || r.calls[1].pts[0] != (state.Point{X: 50, Y: 30}) {
		t.Errorf("label call = %+v", r.calls[1])
	}
	if r.calls[2].text != "note" {
		t.Errorf("text call = %+v", r.calls[2])
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		opacity float64
		want    color.NRGBA
		ok      bool
	}{
		{"#1e1e1e", 100, color.NRGBA{0x1e, 0x1e, 0x1e, 0xff}, true},
		{"#fff", 100, color.NRGBA{0xff, 0xff, 0xff, 0xff}, true},
		{"#00000080", 100, color.NRGBA{0, 0, 0, 0x80}, true},
		{"#ff0000", 50, color.NRGBA{0xff, 0, 0, 0x80}, true},
		{"Blue", 100, color.NRGBA{0, 0, 0xff, 0xff}, true},
		{"transparent", 100, color.NRGBA{}, false},
		{"#12345", 100, color.NRGBA{}, false},
		{"rgb(1,2,3)", 100, color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in, tt.opacity)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q, %v) = %v, %v; want %v, %v", tt.in, tt.opacity, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPNG(t *testing.T) {
	e := element(state.ToolRectangle)
	e.BackgroundColor = "#ff0000"
	snap := state.Snapshot{Elements: []state.Element{e}}

	var buf bytes.Buffer
	if err := PNG(&buf, snap, Options{Scale: 1, Padding: 0, Background: color.White}); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	// Hit box is the extent padded by 10 on each side.
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 60 {
		t.Fatalf("size = %dx%d", b.Dx(), b.Dy())
	}
	r, g, b, _ := img.At(50, 30).RGBA()
	if r>>8 != 0xff || g>>8 != 0 || b>>8 != 0 {
		t.Fatalf("centre pixel = %d,%d,%d, want red fill", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(1, 1).RGBA()
	if r>>8 != 0xff || g>>8 != 0xff || b>>8 != 0xff {
		t.Fatal("corner pixel is not background")
	}
}

func TestSavePDFAndPNG(t *testing.T) {
	dir := t.TempDir()
	snap := state.Snapshot{
		Elements: []state.Element{element(state.ToolArrow)},
		Texts:    []state.TextItem{{ID: "t", X: 0, Y: 0, Content: "café", Options: state.TextStyle{Opacity: 100}}},
	}

	pdfPath := filepath.Join(dir, "board.pdf")
	if err := SavePDF(pdfPath, snap); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", data[:8])
	}

	if err := SavePNG(filepath.Join(dir, "board.png"), snap, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
}

func TestEmptyExport(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(&buf, state.Snapshot{}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("PDF err = %v", err)
	}
	if err := PNG(&buf, state.Snapshot{}, DefaultOptions()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("PNG err = %v", err)
	}
}
