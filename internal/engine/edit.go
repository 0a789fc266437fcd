package engine

import (
	"strings"

	"redraw/internal/state"
)

// Edit is an open inline editor. Exactly one of ElementID (a label) or
// TextID (a free text item) is set.
type Edit struct {
	ElementID string
	TextID    string
	Buffer    string

	item    state.TextItem
	created bool
}

// Editing returns the open editor, if any.
func (e *Engine) Editing() (Edit, bool) {
	if e.edit == nil {
		return Edit{}, false
	}
	return *e.edit, true
}

func (e *Engine) beginEdit(ed *Edit) {
	e.edit = ed
	e.mode = EditingText
	e.changed()
}

// SetEditBuffer replaces the editor contents as the user types.
func (e *Engine) SetEditBuffer(s string) {
	if e.edit == nil {
		return
	}
	e.edit.Buffer = s
	if e.edit.TextID != "" {
		e.scene.UpdateText(e.edit.TextID, func(t *state.TextItem) { t.Content = s })
	}
	e.changed()
}

// CommitEdit writes the editor contents back (on blur or Enter). An empty
// label removes the label; an empty text item removes the item.
func (e *Engine) CommitEdit() {
	if e.mode != EditingText || e.edit == nil {
		return
	}
	ed := e.edit
	e.edit = nil
	e.mode = Idle

	switch {
	case ed.ElementID != "":
		e.commitLabel(ed)
	case ed.TextID != "":
		e.commitText(ed)
	}
	e.changed()
}

func (e *Engine) commitLabel(ed *Edit) {
	content := strings.TrimSpace(ed.Buffer)
	var updated state.Element
	ok := e.scene.Update(ed.ElementID, func(el *state.Element) {
		if content == "" {
			el.Text = nil
		} else {
			ts := e.style.TextStyle()
			ts.TextAlign = "center"
			el.Text = &state.Label{Content: content, TextStyle: ts}
		}
		updated = el.Clone()
	})
	if !ok {
		return
	}
	e.commit(Local)
	e.out.SendElement(updated)
}

func (e *Engine) commitText(ed *Edit) {
	if ed.Buffer == "" {
		e.scene.Remove(ed.TextID)
		if e.selectedText == ed.TextID {
			e.selectedText = ""
		}
		if ed.created {
			return
		}
		e.commit(Local)
		e.out.SendDelete([]string{ed.TextID})
		return
	}

	t, ok := e.scene.Text(ed.TextID)
	if !ok {
		// The item vanished under a remote snapshot while it was being typed.
		t = ed.item
	}
	if ok && !ed.created && ed.Buffer == ed.item.Content {
		return
	}
	t.Content = ed.Buffer
	e.scene.UpsertText(t)
	e.commit(Local)
}

// CancelEdit closes the editor without writing anything.
func (e *Engine) CancelEdit() {
	if e.mode != EditingText || e.edit == nil {
		return
	}
	ed := e.edit
	e.edit = nil
	e.mode = Idle
	if ed.TextID != "" {
		if ed.created {
			e.scene.Remove(ed.TextID)
			if e.selectedText == ed.TextID {
				e.selectedText = ""
			}
		} else {
			e.scene.UpdateText(ed.TextID, func(t *state.TextItem) { t.Content = ed.item.Content })
		}
	}
	e.changed()
}
