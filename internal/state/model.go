package state

// Tool identifies the kind of a drawn element. "select" and "text" are tools
// the controller understands but they never produce an Element.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolRectangle Tool = "rectangle"
	ToolEllipse   Tool = "ellipse"
	ToolLine      Tool = "line"
	ToolArrow     Tool = "arrow"
	ToolPen       Tool = "pen"
	ToolText      Tool = "text"
	// ToolCursorAnchor marks a selection-cursor anchor element.
	ToolCursorAnchor Tool = "cursor"
)

// IsDrawing reports whether the tool creates elements by dragging.
func (t Tool) IsDrawing() bool {
	switch t {
	case ToolRectangle, ToolEllipse, ToolLine, ToolArrow, ToolPen:
		return true
	}
	return false
}

// IsElementKind reports whether an inbound payload with this tool is an element.
func (t Tool) IsElementKind() bool {
	return t.IsDrawing() || t == ToolCursorAnchor
}

type StrokeStyle string

const (
	StrokeSolid  StrokeStyle = "solid"
	StrokeDashed StrokeStyle = "dashed"
	StrokeDotted StrokeStyle = "dotted"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextStyle is shared by element labels and free text items.
type TextStyle struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   string  `json:"fontSize"`
	Color      string  `json:"color"`
	TextAlign  string  `json:"textAlign"`
	Opacity    float64 `json:"opacity"`
}

// Label is text attached to an element, drawn centred on it.
type Label struct {
	Content string `json:"content"`
	TextStyle
}

// Element is a drawn primitive. Width and Height may be negative while a
// gesture is in progress; geometry code normalizes before use.
type Element struct {
	ID              string      `json:"id"`
	Tool            Tool        `json:"tool"`
	X               float64     `json:"x"`
	Y               float64     `json:"y"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	EndX            float64     `json:"endX"`
	EndY            float64     `json:"endY"`
	Stroke          string      `json:"stroke"`
	StrokeWidth     float64     `json:"strokeWidth"`
	StrokeStyle     StrokeStyle `json:"strokeStyle"`
	BackgroundColor string      `json:"backgroundColor"`
	FillStyle       string      `json:"fillStyle"`
	Rotation        float64     `json:"rotation"`
	Opacity         float64     `json:"opacity"`
	Text            *Label      `json:"text,omitempty"`
	PenPath         []Point     `json:"penPath,omitempty"`
	Seed            int         `json:"seed"`
}

// Clone returns a deep copy so snapshots never share mutable state.
func (e Element) Clone() Element {
	if e.Text != nil {
		l := *e.Text
		e.Text = &l
	}
	if e.PenPath != nil {
		e.PenPath = append([]Point(nil), e.PenPath...)
	}
	return e
}

// Center is the rotation pivot of the element.
func (e Element) Center() Point {
	return Point{X: e.X + e.Width/2, Y: e.Y + e.Height/2}
}

// Translate moves every coordinate of the element by (dx, dy).
func (e *Element) Translate(dx, dy float64) {
	e.X += dx
	e.Y += dy
	e.EndX += dx
	e.EndY += dy
	for i := range e.PenPath {
		e.PenPath[i].X += dx
		e.PenPath[i].Y += dy
	}
}

// TextItem is a free-floating text box, independent of elements.
type TextItem struct {
	ID      string    `json:"id"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Content string    `json:"content"`
	Options TextStyle `json:"options"`
}

// Style is the set of properties the toolbar applies to new elements.
type Style struct {
	Stroke          string
	StrokeWidth     float64
	StrokeStyle     StrokeStyle
	BackgroundColor string
	FillStyle       string
	Opacity         float64
	FontFamily      string
	FontSize        string
	TextAlign       string
}

func DefaultStyle() Style {
	return Style{
		Stroke:          "#1e1e1e",
		StrokeWidth:     1,
		StrokeStyle:     StrokeSolid,
		BackgroundColor: "transparent",
		FillStyle:       "none",
		Opacity:         100,
		FontFamily:      "Caveat",
		FontSize:        "1rem",
		TextAlign:       "left",
	}
}

func (s Style) TextStyle() TextStyle {
	return TextStyle{
		FontFamily: s.FontFamily,
		FontSize:   s.FontSize,
		Color:      s.Stroke,
		TextAlign:  s.TextAlign,
		Opacity:    s.Opacity,
	}
}
