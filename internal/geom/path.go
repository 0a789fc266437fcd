package geom

import (
	"math"

	"redraw/internal/state"
)

// ArrowHeadLength is the length of each barb of an arrow head.
const ArrowHeadLength = 10

// ArrowHead returns the two barb end points for an arrow from (x1,y1) to
// (x2,y2). The barbs are drawn from the tip to each returned point.
func ArrowHead(x1, y1, x2, y2 float64) (state.Point, state.Point) {
	angle := math.Atan2(y2-y1, x2-x1)
	return state.Point{
			X: x2 - ArrowHeadLength*math.Cos(angle-math.Pi/6),
			Y: y2 - ArrowHeadLength*math.Sin(angle-math.Pi/6),
		}, state.Point{
			X: x2 - ArrowHeadLength*math.Cos(angle+math.Pi/6),
			Y: y2 - ArrowHeadLength*math.Sin(angle+math.Pi/6),
		}
}

// RoundedRect returns a closed polyline approximating a rectangle with
// rounded corners. The radius is clamped to half the shorter side and each
// corner arc is sampled with the given number of segments.
func RoundedRect(r Rect, radius float64, segments int) []state.Point {
	r = r.Normalize()
	radius = math.Min(radius, math.Min(r.Width, r.Height)/2)
	if radius <= 0 || segments < 1 {
		return []state.Point{
			{X: r.X, Y: r.Y}, {X: r.X + r.Width, Y: r.Y},
			{X: r.X + r.Width, Y: r.Y + r.Height}, {X: r.X, Y: r.Y + r.Height},
			{X: r.X, Y: r.Y},
		}
	}

	corners := []struct {
		cx, cy, start float64
	}{
		{r.X + r.Width - radius, r.Y + radius, -math.Pi / 2},
		{r.X + r.Width - radius, r.Y + r.Height - radius, 0},
		{r.X + radius, r.Y + r.Height - radius, math.Pi / 2},
		{r.X + radius, r.Y + radius, math.Pi},
	}
	pts := make([]state.Point, 0, 4*(segments+1)+1)
	for _, c := range corners {
		for i := 0; i <= segments; i++ {
			a := c.start + float64(i)/float64(segments)*math.Pi/2
			pts = append(pts, state.Point{X: c.cx + radius*math.Cos(a), Y: c.cy + radius*math.Sin(a)})
		}
	}
	return append(pts, pts[0])
}

// Rotate turns p about center by angle radians.
func Rotate(p, center state.Point, angle float64) state.Point {
	if angle == 0 {
		return p
	}
	sin, cos := math.Sincos(angle)
	dx, dy := p.X-center.X, p.Y-center.Y
	return state.Point{X: center.X + dx*cos - dy*sin, Y: center.Y + dx*sin + dy*cos}
}

// DashPattern maps a stroke style to on/off segment lengths.
func DashPattern(s state.StrokeStyle) []float64 {
	switch s {
	case state.StrokeDashed:
		return []float64{5, 12}
	case state.StrokeDotted:
		return []float64{2, 8}
	}
	return nil
}
