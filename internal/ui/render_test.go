package ui

import (
	"image/color"
	"testing"

	"redraw/internal/engine"
	"redraw/internal/geom"
	"redraw/internal/state"
	"redraw/internal/viewport"
)

func rgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func testView() engine.View {
	return engine.View{
		Elements: []state.Element{{
			ID: "r1", Tool: state.ToolRectangle, X: 50, Y: 50, Width: 100, Height: 60,
			Stroke: "#000000", StrokeWidth: 2, StrokeStyle: state.StrokeSolid,
			BackgroundColor: "#ff0000", FillStyle: "solid", Opacity: 100,
		}},
		Selected: map[string]bool{},
		Viewport: viewport.Viewport{Scale: 1},
	}
}

func TestPaintScene(t *testing.T) {
	img := paint(testView(), 300, 200, 1)

	if got := rgba(img.At(5, 5)); got != paperColor {
		t.Errorf("background = %v, want %v", got, paperColor)
	}
	if got := rgba(img.At(100, 80)); got.R < 200 || got.G > 50 {
		t.Errorf("fill = %v, want red", got)
	}
}

func TestPaintAppliesViewportAndDensity(t *testing.T) {
	v := testView()
	v.Viewport = viewport.Viewport{Scale: 2, Pan: state.Point{X: -50, Y: -50}}
	// world (100,80) -> screen (150,110) -> device (300,220)
	img := paint(v, 600, 400, 2)
	if got := rgba(img.At(300, 220)); got.R < 200 || got.G > 50 {
		t.Errorf("fill = %v, want red", got)
	}
	if got := rgba(img.At(50, 50)); got != paperColor {
		t.Errorf("outside = %v, want paper", got)
	}
}

func TestPaintSelectionHandles(t *testing.T) {
	v := testView()
	v.Selected["r1"] = true
	img := paint(v, 300, 200, 1)

	rot := geom.RotationHandle(v.Elements[0])
	if got := rgba(img.At(int(rot.X), int(rot.Y))); got != handleColor {
		t.Errorf("rotation handle = %v, want %v", got, handleColor)
	}
	sc := geom.ScaleHandle(v.Elements[0])
	if got := rgba(img.At(int(sc.X)+1, int(sc.Y)+1)); got != handleColor {
		t.Errorf("scale handle = %v, want %v", got, handleColor)
	}
}

func TestPaintMarqueeAndCursor(t *testing.T) {
	v := engine.View{
		Selected: map[string]bool{},
		Viewport: viewport.Viewport{Scale: 1},
		Marquee:  &geom.Rect{X: 10, Y: 10, Width: 100, Height: 100},
		Cursors:  []engine.Cursor{{ID: "peer", X: 200, Y: 150, Label: "Ada"}},
	}
	img := paint(v, 300, 200, 1)

	if got := rgba(img.At(60, 60)); got == paperColor {
		t.Error("marquee interior was not tinted")
	}
	if got := rgba(img.At(200, 150)); got != cursorColor("peer") {
		t.Errorf("cursor dot = %v, want %v", got, cursorColor("peer"))
	}
}

func TestCursorColorStable(t *testing.T) {
	if cursorColor("a") != cursorColor("a") {
		t.Fatal("colour changed between calls")
	}
}

func TestEditAnchor(t *testing.T) {
	v := testView()
	v.Texts = []state.TextItem{{ID: "t1", X: 5, Y: 7}}

	if _, ok := editAnchor(v); ok {
		t.Fatal("anchor without an open edit")
	}

	v.Edit = &engine.Edit{TextID: "t1"}
	if at, ok := editAnchor(v); !ok || at != (state.Point{X: 5, Y: 7}) {
		t.Errorf("text anchor = %v %v", at, ok)
	}

	v.Edit = &engine.Edit{ElementID: "r1"}
	if at, ok := editAnchor(v); !ok || at != (state.Point{X: 100, Y: 80}) {
		t.Errorf("label anchor = %v %v", at, ok)
	}

	v.Edit = &engine.Edit{ElementID: "gone"}
	if _, ok := editAnchor(v); ok {
		t.Error("anchor for a missing element")
	}
}
