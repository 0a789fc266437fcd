package state

// History is a list of scene snapshots with a cursor. The cursor always
// points at a valid snapshot; every operation is total.
type History struct {
	snapshots []*Scene
	index     int
}

// NewHistory starts a history whose only snapshot is initial (or an empty
// scene when initial is nil).
func NewHistory(initial *Scene) *History {
	if initial == nil {
		initial = NewScene()
	}
	return &History{snapshots: []*Scene{initial.Clone()}}
}

// Current returns a copy of the snapshot at the cursor.
func (h *History) Current() *Scene {
	return h.snapshots[h.index].Clone()
}

// Commit records next. Without overwrite it truncates redo snapshots and
// appends next as a new undo step. With overwrite it replaces the snapshot
// at the cursor and drops redo snapshots, leaving undo depth unchanged.
func (h *History) Commit(next *Scene, overwrite bool) {
	next = next.Clone()
	if overwrite {
		h.snapshots = append(h.snapshots[:h.index], next)
		return
	}
	h.snapshots = append(h.snapshots[:h.index+1], next)
	h.index++
}

// Undo moves the cursor back one step. It reports whether it moved.
func (h *History) Undo() bool {
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Redo moves the cursor forward one step. It reports whether it moved.
func (h *History) Redo() bool {
	if h.index >= len(h.snapshots)-1 {
		return false
	}
	h.index++
	return true
}

func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

// Depth is the number of snapshots, Index the cursor position.
func (h *History) Depth() int { return len(h.snapshots) }
func (h *History) Index() int { return h.index }
