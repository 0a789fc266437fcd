package engine

import (
	"redraw/internal/geom"
	"redraw/internal/state"
	"redraw/internal/viewport"
)

// View is everything a renderer needs for one frame. It is a copy and may
// be kept after the engine moves on.
type View struct {
	Elements     []state.Element
	Texts        []state.TextItem
	Draft        *state.Element
	Selected     map[string]bool
	SelectedText string
	Marquee      *geom.Rect
	Viewport     viewport.Viewport
	Cursors      []Cursor
	Edit         *Edit
	Mode         Mode
	Tool         state.Tool
}

func (e *Engine) View() View {
	v := View{
		Elements:     e.scene.Elements(),
		Texts:        e.scene.Texts(),
		Selected:     make(map[string]bool, len(e.selected)),
		SelectedText: e.selectedText,
		Viewport:     *e.viewport,
		Cursors:      e.cursors.list(),
		Mode:         e.mode,
		Tool:         e.tool,
	}
	for _, id := range e.selected {
		v.Selected[id] = true
	}
	if e.draft != nil {
		d := e.draft.Clone()
		v.Draft = &d
	}
	if e.marquee != nil {
		m := e.marquee.Normalize()
		v.Marquee = &m
	}
	if e.edit != nil {
		ed := *e.edit
		v.Edit = &ed
	}
	return v
}
