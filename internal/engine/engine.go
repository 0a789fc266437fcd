// Package engine is the single-owner state container for one board: the
// working scene, its undo history, selection, the pointer-driven transform
// state machine, the viewport and the set of remote cursors.
//
// The engine is not safe for concurrent use. Callers run every method on a
// single goroutine (or executor) and receive a push notification through
// Subscribe whenever something visible changed.
package engine

import (
	"log/slog"

	"redraw/internal/geom"
	"redraw/internal/state"
	"redraw/internal/viewport"
)

// MinDraftSize is the diagonal a shape draft must exceed to be kept.
const MinDraftSize = 6

// Provenance tags a mutation as originating here or from a peer. Local
// mutations create undo steps and are broadcast; remote ones overwrite the
// current snapshot and are never echoed.
type Provenance int

const (
	Local Provenance = iota
	Remote
)

// Mode is the state of the pointer-driven controller.
type Mode int

const (
	Idle Mode = iota
	Drawing
	Moving
	Scaling
	Rotating
	Marqueeing
	EditingText
	DraggingText
)

var modeNames = [...]string{"idle", "drawing", "moving", "scaling", "rotating", "marqueeing", "editing-text", "dragging-text"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Transforming reports whether the mode is a move, scale or rotate gesture.
func (m Mode) Transforming() bool {
	return m == Moving || m == Scaling || m == Rotating
}

// Outbox receives everything the engine wants peers to know about.
type Outbox interface {
	SendElement(e state.Element)
	SendDelete(ids []string)
	SendClear()
	SendCursor(p state.Point)
	// ScheduleSync is called after every local change. Implementations
	// coalesce calls into one delayed broadcast of the scene as it stands
	// when the delay elapses.
	ScheduleSync()
	// CancelSync drops a pending broadcast. It is called when a remote
	// snapshot replaces the scene.
	CancelSync()
}

type nopOutbox struct{}

func (nopOutbox) SendElement(state.Element) {}
func (nopOutbox) SendDelete([]string)       {}
func (nopOutbox) SendClear()                {}
func (nopOutbox) SendCursor(state.Point)    {}
func (nopOutbox) ScheduleSync()             {}
func (nopOutbox) CancelSync()               {}

type Engine struct {
	history  *state.History
	scene    *state.Scene
	viewport *viewport.Viewport

	tool  state.Tool
	style state.Style

	mode         Mode
	selected     []string
	selectedText string
	marquee      *geom.Rect
	draft        *state.Element
	edit         *Edit

	// gesture bookkeeping
	last   state.Point
	target string
	base   state.Element
	dirty  bool

	cursors *cursorSet

	clientID      string
	pending       bool
	awaitingFirst bool

	out       Outbox
	log       *slog.Logger
	listeners []func()
}

// New returns an engine with an empty scene. A nil outbox or logger is
// replaced with a no-op.
func New(out Outbox, log *slog.Logger) *Engine {
	if out == nil {
		out = nopOutbox{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		history:       state.NewHistory(nil),
		scene:         state.NewScene(),
		viewport:      viewport.New(),
		tool:          state.ToolRectangle,
		style:         state.DefaultStyle(),
		cursors:       newCursorSet(),
		awaitingFirst: true,
		out:           out,
		log:           log,
	}
}

// Subscribe registers fn to be called after every visible change.
func (e *Engine) Subscribe(fn func()) {
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) changed() {
	for _, fn := range e.listeners {
		fn()
	}
}

func (e *Engine) Mode() Mode                  { return e.mode }
func (e *Engine) Tool() state.Tool            { return e.tool }
func (e *Engine) Style() state.Style          { return e.style }
func (e *Engine) ClientID() string            { return e.clientID }
func (e *Engine) CanUndo() bool               { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool               { return e.history.CanRedo() }
func (e *Engine) Viewport() viewport.Viewport { return *e.viewport }

// PendingLocal reports whether local edits have been made since the last
// remote snapshot was applied.
func (e *Engine) PendingLocal() bool { return e.pending }

// Scene returns a copy of the working scene.
func (e *Engine) Scene() *state.Scene { return e.scene.Clone() }

// Snapshot returns the working scene in wire form.
func (e *Engine) Snapshot() state.Snapshot { return e.scene.Snapshot() }

// Selected returns the selected element ids in selection order.
func (e *Engine) Selected() []string { return append([]string(nil), e.selected...) }

func (e *Engine) SelectedText() string { return e.selectedText }

// commit records the working scene in history.
func (e *Engine) commit(p Provenance) {
	e.commitScene(e.scene, p)
}

// commitScene records next in history. Local commits add an undo step, mark
// local changes pending and schedule a broadcast. Remote commits overwrite
// the current step and are never echoed.
func (e *Engine) commitScene(next *state.Scene, p Provenance) {
	switch p {
	case Local:
		e.history.Commit(next, false)
		e.pending = true
		e.out.ScheduleSync()
	case Remote:
		e.history.Commit(next, true)
	}
}

// restore discards uncommitted working changes.
func (e *Engine) restore() {
	e.scene = e.history.Current()
	e.pruneSelection()
}

func (e *Engine) isSelected(id string) bool {
	for _, s := range e.selected {
		if s == id {
			return true
		}
	}
	return false
}

// pruneSelection drops selected ids that are no longer in the scene.
func (e *Engine) pruneSelection() {
	kept := e.selected[:0]
	for _, id := range e.selected {
		if e.scene.Has(id) {
			kept = append(kept, id)
		}
	}
	e.selected = kept
	if e.selectedText != "" {
		if _, ok := e.scene.Text(e.selectedText); !ok {
			e.selectedText = ""
		}
	}
}

func (e *Engine) clearSelection() {
	e.selected = nil
	e.selectedText = ""
}

// SetTool switches the active tool, finishing any gesture or edit first.
func (e *Engine) SetTool(t state.Tool) {
	if e.mode == EditingText {
		e.CommitEdit()
	}
	e.finish(nil)
	e.tool = t
	e.changed()
}

// SetStyle sets the properties applied to new elements and labels.
func (e *Engine) SetStyle(s state.Style) {
	e.style = s
}

// Undo steps back one snapshot, discarding any gesture in progress.
func (e *Engine) Undo() {
	e.cancelGesture()
	if !e.history.Undo() {
		return
	}
	e.afterHistoryMove()
}

func (e *Engine) Redo() {
	e.cancelGesture()
	if !e.history.Redo() {
		return
	}
	e.afterHistoryMove()
}

func (e *Engine) afterHistoryMove() {
	e.restore()
	e.pending = true
	e.out.ScheduleSync()
	e.changed()
}

// Clear wipes the board and tells peers to do the same.
func (e *Engine) Clear() {
	e.reset()
	e.commit(Local)
	e.out.SendClear()
	e.changed()
}

// reset empties the working scene and drops all interaction state.
func (e *Engine) reset() {
	e.scene = state.NewScene()
	e.clearSelection()
	e.mode = Idle
	e.draft = nil
	e.marquee = nil
	e.edit = nil
	e.dirty = false
}

// DeleteSelected removes the selected elements and text item.
func (e *Engine) DeleteSelected() {
	if e.mode == EditingText || (len(e.selected) == 0 && e.selectedText == "") {
		return
	}
	e.cancelGesture()
	ids := append([]string(nil), e.selected...)
	if e.selectedText != "" {
		ids = append(ids, e.selectedText)
	}
	if e.scene.Remove(ids...) == 0 {
		e.clearSelection()
		e.changed()
		return
	}
	e.clearSelection()
	e.commit(Local)
	e.out.SendDelete(ids)
	e.changed()
}

// Wheel pans, or zooms at the pointer when the zoom modifier is held.
func (e *Engine) Wheel(dx, dy float64, screen state.Point, zoom bool) {
	if e.viewport.Wheel(dx, dy, screen.X, screen.Y, zoom) {
		e.changed()
	}
}

// ZoomBy zooms about the centre of the viewport.
func (e *Engine) ZoomBy(delta float64) {
	if e.viewport.ZoomBy(delta) {
		e.changed()
	}
}

func (e *Engine) SetScale(s float64) {
	if e.viewport.SetScale(s) {
		e.changed()
	}
}

func (e *Engine) Resize(w, h float64) {
	e.viewport.Resize(w, h)
}
