package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"redraw/internal/engine"
)

// editor is the inline entry shown over a label or text item while it is
// being edited. Escape cancels, Enter or losing focus commits.
type editor struct {
	widget.Entry

	onCancel func()
	onCommit func()
	syncing  bool
}

func newEditor() *editor {
	e := &editor{}
	e.ExtendBaseWidget(e)
	e.Hide()
	return e
}

func (e *editor) TypedKey(k *fyne.KeyEvent) {
	switch k.Name {
	case fyne.KeyEscape:
		if e.onCancel != nil {
			e.onCancel()
		}
	case fyne.KeyReturn, fyne.KeyEnter:
		if e.onCommit != nil {
			e.onCommit()
		}
	default:
		e.Entry.TypedKey(k)
	}
}

func (e *editor) FocusLost() {
	e.Entry.FocusLost()
	if e.Visible() && e.onCommit != nil {
		e.onCommit()
	}
}

// editOverlay keeps the editor in step with the engine's open edit.
type editOverlay struct {
	entry *editor
	board *Board
	open  bool
}

func newEditOverlay(board *Board) *editOverlay {
	o := &editOverlay{entry: newEditor(), board: board}
	o.entry.OnChanged = func(s string) {
		if o.entry.syncing {
			return
		}
		board.do(func(eng *engine.Engine) { eng.SetEditBuffer(s) })
	}
	o.entry.onCommit = func() {
		board.do(func(eng *engine.Engine) { eng.CommitEdit() })
	}
	o.entry.onCancel = func() {
		board.do(func(eng *engine.Engine) { eng.CancelEdit() })
	}
	return o
}

// sync shows, moves or hides the entry to match v.
func (o *editOverlay) sync(v engine.View) {
	at, ok := editAnchor(v)
	if !ok {
		if o.open {
			o.open = false
			o.entry.Hide()
			if c := fyne.CurrentApp().Driver().CanvasForObject(o.board); c != nil && c.Focused() == o.entry {
				c.Unfocus()
			}
		}
		return
	}

	s := v.Viewport.ToScreen(at)
	size := fyne.NewSize(220, o.entry.MinSize().Height)
	pos := fyne.NewPos(float32(s.X), float32(s.Y))
	if v.Edit.ElementID != "" {
		pos = pos.Subtract(fyne.NewPos(size.Width/2, size.Height/2))
	}
	o.entry.Resize(size)
	o.entry.Move(pos)

	if o.open {
		return
	}
	o.open = true
	o.entry.syncing = true
	o.entry.SetText(v.Edit.Buffer)
	o.entry.syncing = false
	o.entry.Show()
	if c := fyne.CurrentApp().Driver().CanvasForObject(o.board); c != nil {
		c.Focus(o.entry)
	}
}
