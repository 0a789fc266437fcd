package ui

import (
	"hash/fnv"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"redraw/internal/engine"
	"redraw/internal/export"
	"redraw/internal/geom"
	"redraw/internal/state"
)

var (
	selectionColor = color.NRGBA{R: 255, A: 255}
	handleColor    = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 255}
	marqueeColor   = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 255}
	marqueeFill    = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 24}
	paperColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	cursorPalette = []color.NRGBA{
		{R: 0xe0, G: 0x31, B: 0x31, A: 255},
		{R: 0x2f, G: 0x9e, B: 0x44, A: 255},
		{R: 0x19, G: 0x71, B: 0xc2, A: 255},
		{R: 0xf0, G: 0x8c, B: 0x00, A: 255},
		{R: 0x9c, G: 0x36, B: 0xb5, A: 255},
		{R: 0x0c, G: 0x85, B: 0x99, A: 255},
	}
)

const (
	handleDot   = 5
	cursorDot   = 4
	cursorLabel = 12
)

// paint renders one frame. Pixel sizes are device pixels; density maps
// fyne units to them.
func paint(v engine.View, w, h int, density float64) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetColor(paperColor)
	dc.Clear()

	surf, err := export.NewSurface(dc)
	if err != nil {
		return dc.Image()
	}

	scale := v.Viewport.Scale
	if scale <= 0 {
		scale = 1
	}
	dc.Scale(density, density)
	dc.Translate(v.Viewport.Pan.X, v.Viewport.Pan.Y)
	dc.Scale(scale, scale)

	// px converts a screen-constant size into world units.
	px := func(n float64) float64 { return n / scale }

	export.Draw(surf, state.Snapshot{Elements: v.Elements, Texts: v.Texts})
	if v.Draft != nil {
		export.DrawElement(surf, *v.Draft)
	}

	for _, e := range v.Elements {
		if !v.Selected[e.ID] {
			continue
		}
		outline := export.Stroke{Color: selectionColor, Width: px(1)}
		surf.Path(geom.RoundedRect(geom.BoundingBox(e), 0, 0), true, outline, nil)
		for _, c := range []state.Point{geom.RotationHandle(e), geom.ScaleHandle(e)} {
			dot := geom.Rect{X: c.X - px(handleDot), Y: c.Y - px(handleDot), Width: px(2 * handleDot), Height: px(2 * handleDot)}
			fill := handleColor
			surf.Path(export.Ellipse(dot, 16), true, export.Stroke{Color: handleColor, Width: px(1)}, &fill)
		}
	}

	if v.SelectedText != "" && v.Edit == nil {
		for _, t := range v.Texts {
			if t.ID == v.SelectedText {
				box := geom.TextBounds(t).Pad(px(4))
				surf.Path(geom.RoundedRect(box, 0, 0), true, export.Stroke{Color: handleColor, Width: px(1), Dash: []float64{px(4), px(4)}}, nil)
			}
		}
	}

	if v.Marquee != nil {
		fill := marqueeFill
		surf.Path(geom.RoundedRect(*v.Marquee, 0, 0), true, export.Stroke{Color: marqueeColor, Width: px(1), Dash: []float64{px(6), px(6)}}, &fill)
	}

	for _, c := range v.Cursors {
		col := cursorColor(c.ID)
		dot := geom.Rect{X: c.X - px(cursorDot), Y: c.Y - px(cursorDot), Width: px(2 * cursorDot), Height: px(2 * cursorDot)}
		surf.Path(export.Ellipse(dot, 12), true, export.Stroke{Color: col, Width: px(1)}, &col)
		surf.Text(c.Label, state.Point{X: c.X + px(8), Y: c.Y + px(6)}, px(cursorLabel), col, export.AlignLeft, false)
	}

	return dc.Image()
}

// cursorColor gives each peer a stable colour.
func cursorColor(id string) color.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(id))
	return cursorPalette[h.Sum32()%uint32(len(cursorPalette))]
}

// editAnchor returns the world position the inline editor is placed at.
func editAnchor(v engine.View) (state.Point, bool) {
	if v.Edit == nil {
		return state.Point{}, false
	}
	if v.Edit.TextID != "" {
		for _, t := range v.Texts {
			if t.ID == v.Edit.TextID {
				return state.Point{X: t.X, Y: t.Y}, true
			}
		}
		return state.Point{}, false
	}
	for _, e := range v.Elements {
		if e.ID == v.Edit.ElementID {
			return e.Center(), true
		}
	}
	return state.Point{}, false
}
