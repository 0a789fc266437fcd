package engine

import (
	"redraw/internal/state"
)

// DefaultCursorLabel is shown for peers that did not send a name.
const DefaultCursorLabel = "Anonymous"

// Cursor is a peer's pointer in world coordinates.
type Cursor struct {
	ID    string
	X, Y  float64
	Label string
}

type cursorSet struct {
	byID  map[string]int
	items []Cursor
}

func newCursorSet() *cursorSet {
	return &cursorSet{byID: make(map[string]int)}
}

func (c *cursorSet) upsert(id string, p state.Point, label string) {
	if i, ok := c.byID[id]; ok {
		c.items[i].X, c.items[i].Y = p.X, p.Y
		if label != "" {
			c.items[i].Label = label
		}
		return
	}
	if label == "" {
		label = DefaultCursorLabel
	}
	c.byID[id] = len(c.items)
	c.items = append(c.items, Cursor{ID: id, X: p.X, Y: p.Y, Label: label})
}

func (c *cursorSet) remove(id string) bool {
	i, ok := c.byID[id]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.byID, id)
	for j := i; j < len(c.items); j++ {
		c.byID[c.items[j].ID] = j
	}
	return true
}

func (c *cursorSet) list() []Cursor {
	return append([]Cursor(nil), c.items...)
}
