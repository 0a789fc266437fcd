package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rect(id string, x, y float64) Element {
	return Element{ID: id, Tool: ToolRectangle, X: x, Y: y, Width: 40, Height: 30, EndX: x + 40, EndY: y + 30, Seed: SeedFor(id)}
}

func sceneWith(ids ...string) *Scene {
	s := NewScene()
	for i, id := range ids {
		s.Upsert(rect(id, float64(i*10), 0))
	}
	return s
}

func TestHistoryUndoRedoRoundTrip(t *testing.T) {
	h := NewHistory(nil)
	var ids []string
	for _, id := range []string{"a", "b", "c", "d"} {
		ids = append(ids, id)
		h.Commit(sceneWith(ids...), false)
	}
	before := h.Current().Snapshot()

	for n := 0; n <= 4; n++ {
		for i := 0; i < n; i++ {
			h.Undo()
		}
		for i := 0; i < n; i++ {
			h.Redo()
		}
		if diff := cmp.Diff(before, h.Current().Snapshot()); diff != "" {
			t.Fatalf("round trip with n=%d (-want +got):\n%s", n, diff)
		}
	}
}

func TestHistoryBoundariesAreNoOps(t *testing.T) {
	h := NewHistory(nil)
	if h.Undo() {
		t.Fatal("undo on fresh history moved the cursor")
	}
	if h.Redo() {
		t.Fatal("redo on fresh history moved the cursor")
	}
	h.Commit(sceneWith("a"), false)
	h.Redo()
	if got := h.Current().Len(); got != 1 {
		t.Fatalf("elements = %d, want 1", got)
	}
}

func TestHistoryCommitTruncatesRedo(t *testing.T) {
	h := NewHistory(nil)
	h.Commit(sceneWith("a"), false)
	h.Commit(sceneWith("a", "b"), false)
	h.Undo()
	h.Commit(sceneWith("a", "c"), false)

	if h.CanRedo() {
		t.Fatal("redo snapshots survived a new commit")
	}
	if h.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", h.Depth())
	}
	if !h.Current().Has("c") || h.Current().Has("b") {
		t.Fatal("current snapshot is not the latest commit")
	}
}

func TestHistoryOverwriteKeepsDepth(t *testing.T) {
	h := NewHistory(nil)
	h.Commit(sceneWith("a"), false)
	depth := h.Depth()

	h.Commit(sceneWith("remote"), true)
	if h.Depth() != depth {
		t.Fatalf("depth = %d, want %d", h.Depth(), depth)
	}
	if h.Redo() {
		t.Fatal("redo after overwrite moved the cursor")
	}
	h.Undo()
	if h.Current().Len() != 0 {
		t.Fatal("undo after overwrite did not return to the predecessor")
	}
}

func TestHistoryOverwriteDropsRedo(t *testing.T) {
	h := NewHistory(nil)
	h.Commit(sceneWith("a"), false)
	h.Commit(sceneWith("a", "b"), false)
	h.Undo()

	h.Commit(sceneWith("x"), true)
	if h.Redo() {
		t.Fatal("redo reached a snapshot older than the overwrite")
	}
}

func TestHistorySnapshotsAreIsolated(t *testing.T) {
	s := sceneWith("a")
	h := NewHistory(nil)
	h.Commit(s, false)

	s.Update("a", func(e *Element) { e.X = 999 })
	cur := h.Current()
	cur.Update("a", func(e *Element) { e.Y = 999 })

	e, _ := h.Current().Get("a")
	if e.X == 999 || e.Y == 999 {
		t.Fatalf("history snapshot was mutated: %+v", e)
	}
}
