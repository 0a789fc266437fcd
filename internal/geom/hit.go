package geom

import (
	"math"

	"redraw/internal/state"
)

const (
	// HandleOffset is how far above the top edge the rotation handle sits.
	HandleOffset = 20
	// HandleRadius is the hit radius of both transform handles.
	HandleRadius = 10
)

// Handle identifies which transform hot-zone a point falls in.
type Handle int

const (
	HandleNone Handle = iota
	HandleRotate
	HandleScale
)

// TopmostAt returns the last-drawn element whose box contains p.
func TopmostAt(s *state.Scene, p state.Point) (state.Element, bool) {
	var hit state.Element
	found := false
	s.Reverse(func(e state.Element) bool {
		if BoundingBox(e).Contains(p) {
			hit, found = e, true
			return false
		}
		return true
	})
	return hit, found
}

// TextAt returns the first text item whose estimated box contains p.
func TextAt(s *state.Scene, p state.Point) (state.TextItem, bool) {
	for _, t := range s.Texts() {
		if TextBounds(t).Contains(p) {
			return t, true
		}
	}
	return state.TextItem{}, false
}

// InMarquee reports whether the element's box overlaps the marquee.
func InMarquee(e state.Element, marquee Rect) bool {
	return BoundingBox(e).Intersects(marquee)
}

// SelectInMarquee returns the ids of every element overlapping marquee, in
// draw order.
func SelectInMarquee(s *state.Scene, marquee Rect) []string {
	var ids []string
	s.Each(func(e state.Element) {
		if InMarquee(e, marquee) {
			ids = append(ids, e.ID)
		}
	})
	return ids
}

// RotationHandle sits centred above the element's top edge.
func RotationHandle(e state.Element) state.Point {
	r := Extent(e)
	return state.Point{X: r.X + r.Width/2, Y: r.Y - HandleOffset}
}

// ScaleHandle sits on the element's far corner.
func ScaleHandle(e state.Element) state.Point {
	return state.Point{X: e.X + e.Width, Y: e.Y + e.Height}
}

// HandleAt checks the rotation handle first, then the scale handle.
func HandleAt(e state.Element, p state.Point) Handle {
	if Distance(p, RotationHandle(e)) < HandleRadius {
		return HandleRotate
	}
	if Distance(p, ScaleHandle(e)) < HandleRadius {
		return HandleScale
	}
	return HandleNone
}

func Distance(a, b state.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
