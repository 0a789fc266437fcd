package engine

import (
	"redraw/internal/state"
)

// ResetConnection is called whenever the transport (re)connects; the next
// init received is treated as the first one of the connection.
func (e *Engine) ResetConnection() {
	e.awaitingFirst = true
}

// applyRemote applies fn to both the committed snapshot and the working
// scene, then overwrites history so the change is not locally undoable.
// Uncommitted gesture changes in the working scene survive.
func (e *Engine) applyRemote(fn func(*state.Scene)) {
	base := e.history.Current()
	fn(base)
	e.commitScene(base, Remote)
	fn(e.scene)
	e.pruneSelection()
}

// ApplySnapshot handles init (clientID set) and state_sync (clientID empty).
// If local edits are pending and this is the init of the connection, local
// state keeps authority: peer elements and texts we do not have are merged
// in and the merged scene is broadcast. Otherwise the scene becomes exactly
// the received state and any pending broadcast is dropped.
func (e *Engine) ApplySnapshot(snap state.Snapshot, clientID string) {
	first := false
	if clientID != "" {
		e.clientID = clientID
		first = e.awaitingFirst
		e.awaitingFirst = false
	}

	if first && e.pending {
		e.mergeHeld(snap)
		return
	}

	e.pending = false
	e.out.CancelSync()
	e.dropGestureChanges()
	e.applyRemote(func(s *state.Scene) {
		s.Replace(snap.Scene())
	})
	e.dropStaleEdit()
	e.log.Debug("applied remote snapshot", "elements", len(snap.Elements), "texts", len(snap.Texts))
	e.changed()
}

func (e *Engine) mergeHeld(snap state.Snapshot) {
	merge := func(s *state.Scene) {
		for _, el := range snap.Elements {
			if !s.Has(el.ID) {
				s.Upsert(el)
			}
		}
		for _, t := range snap.Texts {
			if _, ok := s.Text(t.ID); !ok {
				s.UpsertText(t)
			}
		}
	}
	e.applyRemote(merge)
	e.pending = false
	e.out.ScheduleSync()
	e.log.Info("held initial snapshot merged into local edits", "remote_elements", len(snap.Elements))
	e.changed()
}

// dropGestureChanges forgets uncommitted transform changes that a snapshot
// replacement just overwrote. A draft is not part of the scene and survives.
func (e *Engine) dropGestureChanges() {
	if e.mode.Transforming() || e.mode == DraggingText {
		e.dirty = false
	}
}

// dropStaleEdit closes an editor whose target no longer exists.
func (e *Engine) dropStaleEdit() {
	if e.edit == nil || e.edit.created {
		return
	}
	gone := false
	if e.edit.ElementID != "" {
		gone = !e.scene.Has(e.edit.ElementID)
	} else if _, ok := e.scene.Text(e.edit.TextID); !ok {
		gone = true
	}
	if gone {
		e.edit = nil
		e.mode = Idle
	}
}

// ApplyElement upserts a peer's element: replaced in place when the id is
// known, appended otherwise. Last message wins.
func (e *Engine) ApplyElement(el state.Element) {
	if el.ID == "" || !el.Tool.IsElementKind() {
		return
	}
	e.applyRemote(func(s *state.Scene) { s.Upsert(el) })
	e.changed()
}

// ApplyDelete removes the ids from the scene and from the selection.
func (e *Engine) ApplyDelete(ids []string) {
	if len(ids) == 0 {
		return
	}
	e.applyRemote(func(s *state.Scene) { s.Remove(ids...) })
	e.dropStaleEdit()
	e.changed()
}

// ApplyClear wipes the board without echoing a clear back to peers.
func (e *Engine) ApplyClear() {
	e.reset()
	e.applyRemote(func(s *state.Scene) { s.Replace(state.NewScene()) })
	e.changed()
}

// ApplyCursor upserts a peer's cursor. Our own cursor is ignored.
func (e *Engine) ApplyCursor(id string, p state.Point, label string) {
	if id == "" || id == e.clientID {
		return
	}
	e.cursors.upsert(id, p, label)
	e.changed()
}

func (e *Engine) ApplyCursorLeave(id string) {
	if e.cursors.remove(id) {
		e.changed()
	}
}

// Cursors returns the remote cursors in order of first sighting.
func (e *Engine) Cursors() []Cursor {
	return e.cursors.list()
}
