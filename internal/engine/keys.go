package engine

import (
	"strings"
)

// Key is a keyboard event as seen by the engine.
type Key struct {
	Name  string
	Ctrl  bool
	Meta  bool
	Shift bool
	// InTextInput is set when focus is inside an editable text field.
	InTextInput bool
}

// Key handles keyboard shortcuts: undo/redo, delete and escape.
func (e *Engine) Key(k Key) {
	name := strings.ToLower(k.Name)

	if k.Ctrl || k.Meta {
		if k.InTextInput {
			return
		}
		switch name {
		case "z":
			if k.Shift {
				e.Redo()
			} else {
				e.Undo()
			}
		case "y":
			e.Redo()
		}
		return
	}

	switch name {
	case "delete", "backspace":
		if k.InTextInput {
			return
		}
		e.DeleteSelected()
	case "escape":
		e.Escape()
	}
}

// Escape cancels in priority order: an open text edit, then a text drag,
// then any other gesture together with the selection.
func (e *Engine) Escape() {
	switch e.mode {
	case EditingText:
		e.CancelEdit()
		return
	case DraggingText:
		e.cancelGesture()
		e.changed()
		return
	}
	e.cancelGesture()
	e.clearSelection()
	e.changed()
}
