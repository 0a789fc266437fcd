// Package viewport maps between screen pixels and world coordinates.
package viewport

import (
	"redraw/internal/state"
)

const (
	MinScale = 0.25
	MaxScale = 4.0
	// WheelZoomFactor converts a wheel delta into a zoom delta.
	WheelZoomFactor = 0.0015
)

func Clamp(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// Viewport is a pan offset applied after a uniform scale:
// screen = world*scale + pan.
type Viewport struct {
	Scale  float64
	Pan    state.Point
	Width  float64
	Height float64
}

func New() *Viewport {
	return &Viewport{Scale: 1}
}

func (v *Viewport) ToWorld(p state.Point) state.Point {
	return state.Point{X: (p.X - v.Pan.X) / v.Scale, Y: (p.Y - v.Pan.Y) / v.Scale}
}

func (v *Viewport) ToScreen(p state.Point) state.Point {
	return state.Point{X: p.X*v.Scale + v.Pan.X, Y: p.Y*v.Scale + v.Pan.Y}
}

// ZoomAt scales by (1+delta) keeping the world point under (sx, sy) fixed on
// screen. It reports whether the scale changed.
func (v *Viewport) ZoomAt(delta, sx, sy float64) bool {
	return v.SetScaleAt(v.Scale*(1+delta), sx, sy)
}

// SetScaleAt sets an absolute scale anchored at (sx, sy).
func (v *Viewport) SetScaleAt(scale, sx, sy float64) bool {
	next := Clamp(scale)
	if next == v.Scale {
		return false
	}
	world := v.ToWorld(state.Point{X: sx, Y: sy})
	v.Pan = state.Point{X: sx - world.X*next, Y: sy - world.Y*next}
	v.Scale = next
	return true
}

// ZoomBy zooms about the centre of the visible area.
func (v *Viewport) ZoomBy(delta float64) bool {
	return v.ZoomAt(delta, v.Width/2, v.Height/2)
}

// SetScale sets an absolute scale about the centre of the visible area.
func (v *Viewport) SetScale(scale float64) bool {
	return v.SetScaleAt(scale, v.Width/2, v.Height/2)
}

// PanBy shifts the view by a screen-space delta. The canvas is unbounded.
func (v *Viewport) PanBy(dx, dy float64) {
	v.Pan.X += dx
	v.Pan.Y += dy
}

func (v *Viewport) Resize(w, h float64) {
	v.Width, v.Height = w, h
}

// Wheel applies wheel input: with the zoom modifier held it zooms at the
// cursor, otherwise it pans against the scroll direction.
func (v *Viewport) Wheel(dx, dy, sx, sy float64, zoomModifier bool) bool {
	if zoomModifier {
		return v.ZoomAt(-dy*WheelZoomFactor, sx, sy)
	}
	if dx == 0 && dy == 0 {
		return false
	}
	v.PanBy(-dx, -dy)
	return true
}
