package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"redraw/internal/state"
)

// Options controls raster output.
type Options struct {
	// Scale is output pixels per world unit.
	Scale      float64
	Padding    float64
	Background color.Color
}

func DefaultOptions() Options {
	return Options{Scale: 2, Padding: 20, Background: color.White}
}

// PNG renders snap to w.
func PNG(w io.Writer, snap state.Snapshot, opts Options) error {
	dc, err := rasterize(snap, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG renders snap to a PNG file at path.
func SavePNG(path string, snap state.Snapshot, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := PNG(f, snap, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func rasterize(snap state.Snapshot, opts Options) (*gg.Context, error) {
	b, ok := Bounds(snap)
	if !ok {
		return nil, ErrEmpty
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	width := int(math.Ceil((b.Width + 2*opts.Padding) * opts.Scale))
	height := int(math.Ceil((b.Height + 2*opts.Padding) * opts.Scale))

	dc := gg.NewContext(width, height)
	surface, err := NewSurface(dc)
	if err != nil {
		return nil, err
	}
	if opts.Background != nil {
		dc.SetColor(opts.Background)
		dc.Clear()
	}
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(opts.Padding-b.X, opts.Padding-b.Y)

	Draw(surface, snap)
	return dc, nil
}

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// NewSurface draws onto dc in whatever coordinate system dc is set up with.
func NewSurface(dc *gg.Context) (Surface, error) {
	ttf, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &ggSurface{dc: dc, ttf: ttf, faces: make(map[float64]font.Face)}, nil
}

type ggSurface struct {
	dc    *gg.Context
	ttf   *truetype.Font
	faces map[float64]font.Face
}

func (s *ggSurface) Path(pts []state.Point, closed bool, stroke Stroke, fill *color.NRGBA) {
	if len(pts) < 2 {
		return
	}
	dc := s.dc
	dc.NewSubPath()
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	if closed {
		dc.ClosePath()
	}
	if fill != nil {
		dc.SetColor(*fill)
		dc.FillPreserve()
	}
	dc.SetColor(stroke.Color)
	dc.SetLineWidth(stroke.Width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetDash(stroke.Dash...)
	dc.Stroke()
}

func (s *ggSurface) Text(text string, at state.Point, px float64, c color.NRGBA, align Align, middle bool) {
	face, ok := s.faces[px]
	if !ok {
		face = truetype.NewFace(s.ttf, &truetype.Options{Size: px, DPI: 72, Hinting: font.HintingFull})
		s.faces[px] = face
	}
	s.dc.SetFontFace(face)
	s.dc.SetColor(c)

	ax := 0.0
	switch align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	ay := 1.0
	if middle {
		ay = 0.5
	}
	s.dc.DrawStringAnchored(text, at.X, at.Y, ax, ay)
}
