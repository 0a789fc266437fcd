package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"

	"redraw/internal/state"
)

const pdfMargin = 20

// PDF writes snap as a single page sized to its content. One world unit is
// one point.
func PDF(w io.Writer, snap state.Snapshot) error {
	p, err := layout(snap)
	if err != nil {
		return err
	}
	return p.Output(w)
}

// SavePDF writes snap to a PDF file at path.
func SavePDF(path string, snap state.Snapshot) error {
	p, err := layout(snap)
	if err != nil {
		return err
	}
	return p.OutputFileAndClose(path)
}

func layout(snap state.Snapshot) (*gofpdf.Fpdf, error) {
	b, ok := Bounds(snap)
	if !ok {
		return nil, ErrEmpty
	}
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: b.Width + 2*pdfMargin, Ht: b.Height + 2*pdfMargin},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	s := &pdfSurface{
		pdf: p,
		tr:  p.UnicodeTranslatorFromDescriptor(""),
		dx:  pdfMargin - b.X,
		dy:  pdfMargin - b.Y,
	}
	Draw(s, snap)
	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return p, nil
}

type pdfSurface struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	dx, dy float64
}

func (s *pdfSurface) Path(pts []state.Point, closed bool, stroke Stroke, fill *color.NRGBA) {
	if len(pts) < 2 {
		return
	}
	p := s.pdf
	p.SetDrawColor(int(stroke.Color.R), int(stroke.Color.G), int(stroke.Color.B))
	p.SetAlpha(float64(stroke.Color.A)/255, "Normal")
	p.SetLineWidth(stroke.Width)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	p.SetDashPattern(stroke.Dash, 0)

	p.MoveTo(pts[0].X+s.dx, pts[0].Y+s.dy)
	for _, pt := range pts[1:] {
		p.LineTo(pt.X+s.dx, pt.Y+s.dy)
	}
	style := "D"
	if closed {
		p.ClosePath()
		if fill != nil {
			p.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
			style = "FD"
		}
	}
	p.DrawPath(style)
}

func (s *pdfSurface) Text(text string, at state.Point, px float64, c color.NRGBA, align Align, middle bool) {
	p := s.pdf
	p.SetFont("Helvetica", "", px)
	p.SetTextColor(int(c.R), int(c.G), int(c.B))
	p.SetAlpha(float64(c.A)/255, "Normal")

	text = s.tr(text)
	x := at.X + s.dx
	switch w := p.GetStringWidth(text); align {
	case AlignCenter:
		x -= w / 2
	case AlignRight:
		x -= w
	}
	// Text places the baseline; shift down from the top or the middle.
	y := at.Y + s.dy + px*0.8
	if middle {
		y = at.Y + s.dy + px*0.35
	}
	p.Text(x, y, text)
}
