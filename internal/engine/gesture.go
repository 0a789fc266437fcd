package engine

import (
	"math"

	"redraw/internal/geom"
	"redraw/internal/state"
)

// PointerDown starts a gesture at a screen position according to the active
// tool. A press while editing text commits the edit and is otherwise ignored.
func (e *Engine) PointerDown(screen state.Point) {
	if e.mode == EditingText {
		e.CommitEdit()
		return
	}
	if e.mode != Idle {
		e.finish(nil)
	}

	p := e.viewport.ToWorld(screen)
	e.last = p
	e.dirty = false

	switch {
	case e.tool == state.ToolSelect:
		e.beginSelect(p)
	case e.tool.IsDrawing():
		e.beginDraw(p)
	default:
		return
	}
	e.changed()
}

func (e *Engine) beginDraw(p state.Point) {
	id := state.NewID()
	d := state.Element{
		ID:              id,
		Tool:            e.tool,
		X:               p.X,
		Y:               p.Y,
		EndX:            p.X,
		EndY:            p.Y,
		Stroke:          e.style.Stroke,
		StrokeWidth:     e.style.StrokeWidth,
		StrokeStyle:     e.style.StrokeStyle,
		BackgroundColor: e.style.BackgroundColor,
		FillStyle:       e.style.FillStyle,
		Opacity:         e.style.Opacity,
		Seed:            state.SeedFor(id),
	}
	if e.tool == state.ToolPen {
		d.PenPath = []state.Point{p}
	}
	e.draft = &d
	e.mode = Drawing
}

func (e *Engine) beginSelect(p state.Point) {
	if t, ok := geom.TextAt(e.scene, p); ok {
		e.selected = nil
		e.selectedText = t.ID
		e.marquee = nil
		e.target = t.ID
		e.mode = DraggingText
		return
	}

	// Handles are only drawn on selected elements and the rotation handle
	// lies outside the element's own box, so test them before hit-testing.
	if el, h, ok := e.selectedHandleAt(p); ok {
		e.beginTransform(el, h)
		return
	}

	hit, ok := geom.TopmostAt(e.scene, p)
	if !ok {
		e.clearSelection()
		e.marquee = &geom.Rect{X: p.X, Y: p.Y}
		e.mode = Marqueeing
		return
	}

	if !e.isSelected(hit.ID) {
		e.selected = []string{hit.ID}
	}
	e.beginTransform(hit, geom.HandleAt(hit, p))
}

func (e *Engine) beginTransform(el state.Element, h geom.Handle) {
	e.selectedText = ""
	e.target = el.ID
	e.base = el.Clone()

	switch h {
	case geom.HandleRotate:
		e.mode = Rotating
	case geom.HandleScale:
		e.mode = Scaling
	default:
		e.mode = Moving
	}
}

func (e *Engine) selectedHandleAt(p state.Point) (state.Element, geom.Handle, bool) {
	for i := len(e.selected) - 1; i >= 0; i-- {
		el, ok := e.scene.Get(e.selected[i])
		if !ok {
			continue
		}
		if h := geom.HandleAt(el, p); h != geom.HandleNone {
			return el, h, true
		}
	}
	return state.Element{}, geom.HandleNone, false
}

// PointerMove advances the active gesture and reports the pointer to peers.
func (e *Engine) PointerMove(screen state.Point) {
	p := e.viewport.ToWorld(screen)
	e.out.SendCursor(p)

	switch e.mode {
	case DraggingText:
		dx, dy := p.X-e.last.X, p.Y-e.last.Y
		e.last = p
		if dx == 0 && dy == 0 {
			return
		}
		e.scene.UpdateText(e.target, func(t *state.TextItem) {
			t.X += dx
			t.Y += dy
		})
		e.dirty = true

	case Moving:
		// Incremental against the previous sample, not the gesture origin.
		dx, dy := p.X-e.last.X, p.Y-e.last.Y
		e.last = p
		if dx == 0 && dy == 0 {
			return
		}
		for _, id := range e.selected {
			e.scene.Update(id, func(el *state.Element) { el.Translate(dx, dy) })
		}
		e.dirty = true

	case Scaling:
		e.scene.Update(e.target, func(el *state.Element) { scaleTo(el, e.base, p) })
		e.dirty = true

	case Rotating:
		e.scene.Update(e.target, func(el *state.Element) {
			c := el.Center()
			el.Rotation = math.Atan2(p.Y-c.Y, p.X-c.X)
		})
		e.dirty = true

	case Marqueeing:
		e.marquee.Width = p.X - e.marquee.X
		e.marquee.Height = p.Y - e.marquee.Y

	case Drawing:
		extendDraft(e.draft, p)

	default:
		return
	}
	e.changed()
}

// scaleTo moves the far corner of el to p. Pen paths are stretched about the
// element origin using the extent captured when the gesture began.
func scaleTo(el *state.Element, base state.Element, p state.Point) {
	el.Width = p.X - el.X
	el.Height = p.Y - el.Y
	el.EndX = p.X
	el.EndY = p.Y
	if el.Tool != state.ToolPen || len(base.PenPath) != len(el.PenPath) {
		return
	}
	sx, sy := 1.0, 1.0
	if base.Width != 0 {
		sx = el.Width / base.Width
	}
	if base.Height != 0 {
		sy = el.Height / base.Height
	}
	for i, bp := range base.PenPath {
		el.PenPath[i] = state.Point{
			X: el.X + (bp.X-base.X)*sx,
			Y: el.Y + (bp.Y-base.Y)*sy,
		}
	}
}

func extendDraft(d *state.Element, p state.Point) {
	d.EndX, d.EndY = p.X, p.Y
	if d.Tool == state.ToolPen {
		d.PenPath = append(d.PenPath, p)
		return
	}
	d.Width = p.X - d.X
	d.Height = p.Y - d.Y
}

// PointerUp finishes the active gesture at a screen position, including a
// release outside the canvas.
func (e *Engine) PointerUp(screen state.Point) {
	p := e.viewport.ToWorld(screen)
	e.finish(&p)
}

// PointerLeave finishes the active gesture without a release position.
func (e *Engine) PointerLeave() {
	e.finish(nil)
}

// Blur is called when the window loses focus.
func (e *Engine) Blur() {
	e.finish(nil)
}

// finish ends the active gesture, committing it when it changed the scene,
// and returns to idle. release is nil when no final pointer position is known.
func (e *Engine) finish(release *state.Point) {
	switch e.mode {
	case Idle, EditingText:
		return

	case DraggingText:
		if e.dirty {
			e.commit(Local)
		}

	case Marqueeing:
		if release != nil {
			e.marquee.Width = release.X - e.marquee.X
			e.marquee.Height = release.Y - e.marquee.Y
		}
		e.selected = geom.SelectInMarquee(e.scene, *e.marquee)
		e.selectedText = ""

	case Drawing:
		e.finalizeDraft(release)

	case Moving, Scaling, Rotating:
		if e.dirty {
			e.commit(Local)
			ids := e.selected
			if e.mode != Moving {
				ids = []string{e.target}
			}
			for _, id := range ids {
				if el, ok := e.scene.Get(id); ok {
					e.out.SendElement(el.Clone())
				}
			}
		}
	}

	e.mode = Idle
	e.draft = nil
	e.marquee = nil
	e.dirty = false
	e.changed()
}

func (e *Engine) finalizeDraft(release *state.Point) {
	d := e.draft.Clone()
	if release != nil {
		if d.Tool == state.ToolPen {
			last := d.PenPath[len(d.PenPath)-1]
			if last != *release {
				d.PenPath = append(d.PenPath, *release)
			}
			d.EndX, d.EndY = release.X, release.Y
		} else {
			extendDraft(&d, *release)
		}
	}

	if !keepDraft(d) {
		e.log.Debug("draft discarded", "tool", d.Tool, "width", d.Width, "height", d.Height)
		return
	}
	if d.Tool == state.ToolPen {
		b := geom.PathBounds(d.PenPath)
		d.X, d.Y, d.Width, d.Height = b.X, b.Y, b.Width, b.Height
	}

	e.scene.Upsert(d)
	e.commit(Local)
	e.out.SendElement(d.Clone())
}

// keepDraft filters out accidental clicks.
func keepDraft(d state.Element) bool {
	if d.Tool == state.ToolPen {
		return len(d.PenPath) > 1
	}
	return math.Hypot(d.Width, d.Height) > MinDraftSize
}

// cancelGesture abandons the active gesture, reverting uncommitted changes.
func (e *Engine) cancelGesture() {
	switch e.mode {
	case Idle, EditingText:
		return
	case Moving, Scaling, Rotating, DraggingText:
		if e.dirty {
			e.restore()
		}
	}
	e.mode = Idle
	e.draft = nil
	e.marquee = nil
	e.dirty = false
}

// DoubleClick opens the inline editor on a text item or an element label.
func (e *Engine) DoubleClick(screen state.Point) {
	if e.tool != state.ToolSelect {
		return
	}
	e.finish(nil)
	p := e.viewport.ToWorld(screen)

	if t, ok := geom.TextAt(e.scene, p); ok {
		e.selected = nil
		e.selectedText = t.ID
		e.beginEdit(&Edit{TextID: t.ID, Buffer: t.Content, item: t})
		return
	}
	if el, ok := geom.TopmostAt(e.scene, p); ok {
		e.selected = []string{el.ID}
		e.selectedText = ""
		content := ""
		if el.Text != nil {
			content = el.Text.Content
		}
		e.beginEdit(&Edit{ElementID: el.ID, Buffer: content})
	}
}

// Click places a new text item when the text tool is active.
func (e *Engine) Click(screen state.Point) {
	if e.tool != state.ToolText {
		return
	}
	if e.mode == EditingText {
		e.CommitEdit()
	}
	p := e.viewport.ToWorld(screen)
	t := state.TextItem{
		ID:      state.NewID(),
		X:       p.X,
		Y:       p.Y,
		Options: e.style.TextStyle(),
	}
	e.scene.UpsertText(t)
	e.selected = nil
	e.selectedText = t.ID
	e.beginEdit(&Edit{TextID: t.ID, item: t, created: true})
}
