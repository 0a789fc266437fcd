// Package geom holds the pure geometry used by the engine and renderers:
// bounding boxes, hit-testing, transform handles and path construction.
package geom

import (
	"math"
	"strconv"
	"strings"

	"redraw/internal/state"
)

// Padding widens every element box to cover hand-drawn overdraw.
const Padding = 10

// Rect is an axis-aligned rectangle. Width and Height may be negative for a
// marquee being dragged up or left; use Normalize before comparing.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Normalize() Rect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

func (r Rect) Contains(p state.Point) bool {
	r = r.Normalize()
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Intersects is the strict AABB overlap test: partial overlap counts, edges
// that only touch do not.
func (r Rect) Intersects(o Rect) bool {
	r, o = r.Normalize(), o.Normalize()
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

func (r Rect) Pad(p float64) Rect {
	return Rect{X: r.X - p, Y: r.Y - p, Width: r.Width + 2*p, Height: r.Height + 2*p}
}

// Extent returns the raw box spanned by an element's origin and size,
// normalized.
func Extent(e state.Element) Rect {
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}.Normalize()
}

// BoundingBox is the padded hit box of an element.
func BoundingBox(e state.Element) Rect {
	switch e.Tool {
	case state.ToolLine, state.ToolArrow:
		return spanOf([]state.Point{{X: e.X, Y: e.Y}, {X: e.EndX, Y: e.EndY}}).Pad(Padding)
	case state.ToolPen:
		if len(e.PenPath) == 0 {
			return Rect{X: e.X, Y: e.Y}
		}
		return spanOf(e.PenPath).Pad(Padding)
	default:
		return Extent(e).Pad(Padding)
	}
}

func spanOf(pts []state.Point) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// PathBounds is the unpadded span of a pen path.
func PathBounds(pts []state.Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	return spanOf(pts)
}

// FontPixels converts a CSS-like font size ("16px", "1rem", "1.5em", "18")
// to pixels, falling back to 16.
func FontPixels(size string) float64 {
	size = strings.TrimSpace(size)
	unit := 1.0
	switch {
	case strings.HasSuffix(size, "rem"):
		size, unit = strings.TrimSuffix(size, "rem"), 16
	case strings.HasSuffix(size, "em"):
		size, unit = strings.TrimSuffix(size, "em"), 16
	case strings.HasSuffix(size, "px"):
		size = strings.TrimSuffix(size, "px")
	}
	v, err := strconv.ParseFloat(size, 64)
	if err != nil || v <= 0 {
		return 16
	}
	return v * unit
}

// TextBounds estimates the box of a free text item from its content length
// and font size; no font metrics are available to the engine.
func TextBounds(t state.TextItem) Rect {
	px := FontPixels(t.Options.FontSize)
	return Rect{
		X:      t.X,
		Y:      t.Y,
		Width:  math.Max(40, float64(len([]rune(t.Content)))*px*0.55),
		Height: math.Max(20, px*1.3),
	}
}
