// Package export renders scene snapshots. Draw walks a snapshot and emits
// world-space paths and text to a Surface; the PNG and PDF writers (and the
// on-screen canvas) are Surfaces.
package export

import (
	"errors"
	"image/color"
	"math"
	"strconv"
	"strings"

	"redraw/internal/geom"
	"redraw/internal/state"
)

const (
	// CornerRadius rounds rectangle corners.
	CornerRadius    = 10
	cornerSegments  = 6
	ellipseSegments = 64
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("nothing to export")

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func ParseAlign(s string) Align {
	switch s {
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	}
	return AlignLeft
}

// Stroke describes how a path outline is drawn. A nil Dash is a solid line.
type Stroke struct {
	Color color.NRGBA
	Width float64
	Dash  []float64
}

// Surface receives world-space drawing commands.
type Surface interface {
	// Path draws a polyline, closed back to its first point when closed is
	// set. fill is nil for unfilled shapes.
	Path(pts []state.Point, closed bool, stroke Stroke, fill *color.NRGBA)
	// Text draws a single line. When middle is set at is the vertical centre
	// of the line, otherwise its top.
	Text(s string, at state.Point, px float64, c color.NRGBA, align Align, middle bool)
}

// Draw renders elements in order, then free text items on top.
func Draw(s Surface, snap state.Snapshot) {
	for _, e := range snap.Elements {
		DrawElement(s, e)
	}
	for _, t := range snap.Texts {
		DrawText(s, t)
	}
}

// DrawElement renders one element, its label included, applying rotation
// about the element centre.
func DrawElement(s Surface, e state.Element) {
	stroke := Stroke{
		Color: ParseColorOr(e.Stroke, e.Opacity, color.NRGBA{A: 255}),
		Width: math.Max(e.StrokeWidth, 1),
		Dash:  geom.DashPattern(e.StrokeStyle),
	}
	var fill *color.NRGBA
	if c, ok := ParseColor(e.BackgroundColor, e.Opacity); ok {
		fill = &c
	}

	center := e.Center()
	rot := func(pts []state.Point) []state.Point {
		if e.Rotation == 0 {
			return pts
		}
		out := make([]state.Point, len(pts))
		for i, p := range pts {
			out[i] = geom.Rotate(p, center, e.Rotation)
		}
		return out
	}

	switch e.Tool {
	case state.ToolRectangle:
		s.Path(rot(geom.RoundedRect(geom.Extent(e), CornerRadius, cornerSegments)), true, stroke, fill)
	case state.ToolEllipse:
		s.Path(rot(Ellipse(geom.Extent(e), ellipseSegments)), true, stroke, fill)
	case state.ToolLine:
		s.Path(rot([]state.Point{{X: e.X, Y: e.Y}, {X: e.EndX, Y: e.EndY}}), false, stroke, nil)
	case state.ToolArrow:
		tip := state.Point{X: e.EndX, Y: e.EndY}
		a, b := geom.ArrowHead(e.X, e.Y, e.EndX, e.EndY)
		s.Path(rot([]state.Point{{X: e.X, Y: e.Y}, tip}), false, stroke, nil)
		solid := stroke
		solid.Dash = nil
		s.Path(rot([]state.Point{a, tip, b}), false, solid, nil)
	case state.ToolPen:
		if len(e.PenPath) > 1 {
			s.Path(rot(e.PenPath), false, stroke, nil)
		}
	}

	if e.Text != nil && e.Text.Content != "" {
		c := ParseColorOr(e.Text.Color, e.Text.Opacity, stroke.Color)
		s.Text(e.Text.Content, center, geom.FontPixels(e.Text.FontSize), c, AlignCenter, true)
	}
}

func DrawText(s Surface, t state.TextItem) {
	if t.Content == "" {
		return
	}
	c := ParseColorOr(t.Options.Color, t.Options.Opacity, color.NRGBA{A: 255})
	s.Text(t.Content, state.Point{X: t.X, Y: t.Y}, geom.FontPixels(t.Options.FontSize), c, ParseAlign(t.Options.TextAlign), false)
}

// Ellipse samples the ellipse inscribed in r as a closed polyline.
func Ellipse(r geom.Rect, segments int) []state.Point {
	r = r.Normalize()
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	rx, ry := r.Width/2, r.Height/2
	pts := make([]state.Point, 0, segments+1)
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		pts = append(pts, state.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)})
	}
	return pts
}

// Bounds is the union of every element's hit box and every text item's box.
func Bounds(snap state.Snapshot) (geom.Rect, bool) {
	var boxes []geom.Rect
	for _, e := range snap.Elements {
		boxes = append(boxes, geom.BoundingBox(e))
	}
	for _, t := range snap.Texts {
		boxes = append(boxes, geom.TextBounds(t))
	}
	if len(boxes) == 0 {
		return geom.Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range boxes {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.Width)
		maxY = math.Max(maxY, b.Y+b.Height)
	}
	return geom.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

var named = map[string]color.NRGBA{
	"black": {A: 255},
	"white": {R: 255, G: 255, B: 255, A: 255},
	"red":   {R: 255, A: 255},
	"green": {G: 128, A: 255},
	"blue":  {B: 255, A: 255},
}

// ParseColor reads "#rgb", "#rrggbb", "#rrggbbaa" or a basic colour name and
// scales alpha by opacity (0-100). "transparent" and "" report false.
func ParseColor(s string, opacity float64) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "transparent" || s == "none" {
		return color.NRGBA{}, false
	}
	c, ok := named[s]
	if !ok {
		c, ok = parseHex(s)
		if !ok {
			return color.NRGBA{}, false
		}
	}
	if opacity >= 0 && opacity < 100 {
		c.A = uint8(math.Round(float64(c.A) * opacity / 100))
	}
	return c, true
}

// ParseColorOr is ParseColor with a fallback for unparsable input.
func ParseColorOr(s string, opacity float64, fallback color.NRGBA) color.NRGBA {
	if c, ok := ParseColor(s, opacity); ok {
		return c
	}
	return fallback
}

func parseHex(s string) (color.NRGBA, bool) {
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, false
	}
	s = s[1:]
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}
