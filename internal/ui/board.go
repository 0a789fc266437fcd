package ui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"redraw/internal/engine"
	"redraw/internal/session"
	"redraw/internal/state"
)

// Board is the drawing surface. It forwards pointer and wheel input to the
// session's engine and paints the engine's view.
type Board struct {
	widget.BaseWidget

	sess *session.Session

	mu   sync.RWMutex
	view engine.View

	down bool
	last fyne.Position

	// OnViewChanged runs after every repaint request, on the UI thread.
	OnViewChanged func(v engine.View)
}

var _ fyne.Widget = (*Board)(nil)
var _ fyne.Draggable = (*Board)(nil)
var _ fyne.Scrollable = (*Board)(nil)
var _ fyne.Tappable = (*Board)(nil)
var _ fyne.DoubleTappable = (*Board)(nil)
var _ desktop.Mouseable = (*Board)(nil)
var _ desktop.Hoverable = (*Board)(nil)

func NewBoard(sess *session.Session) *Board {
	b := &Board{sess: sess}
	b.ExtendBaseWidget(b)
	sess.OnSwitch(b.attach)
	b.attach(sess.Engine())
	return b
}

// attach subscribes to a (new) engine. Engines are discarded on board
// switch, so the old subscription simply goes quiet.
func (b *Board) attach(eng *engine.Engine) {
	eng.Subscribe(func() { b.update(eng) })
	size := b.Size()
	eng.Resize(float64(size.Width), float64(size.Height))
	b.update(eng)
}

func (b *Board) update(eng *engine.Engine) {
	if b.sess.Engine() != eng {
		return
	}
	v := eng.View()
	b.mu.Lock()
	b.view = v
	b.mu.Unlock()
	b.Refresh()
	if b.OnViewChanged != nil {
		b.OnViewChanged(v)
	}
}

func (b *Board) View() engine.View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}

func point(p fyne.Position) state.Point {
	return state.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (b *Board) do(fn func(*engine.Engine)) {
	fn(b.sess.Engine())
}

func (b *Board) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.down = true
	b.last = e.Position
	b.do(func(eng *engine.Engine) { eng.PointerDown(point(e.Position)) })
}

func (b *Board) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || !b.down {
		return
	}
	b.down = false
	b.do(func(eng *engine.Engine) { eng.PointerUp(point(e.Position)) })
}

func (b *Board) Dragged(e *fyne.DragEvent) {
	b.last = e.Position
	b.do(func(eng *engine.Engine) { eng.PointerMove(point(e.Position)) })
}

// DragEnd releases the gesture when the button came up outside the widget
// and MouseUp was never delivered.
func (b *Board) DragEnd() {
	if !b.down {
		return
	}
	b.down = false
	b.do(func(eng *engine.Engine) { eng.PointerUp(point(b.last)) })
}

func (b *Board) MouseIn(*desktop.MouseEvent) {}

func (b *Board) MouseMoved(e *desktop.MouseEvent) {
	b.do(func(eng *engine.Engine) { eng.PointerMove(point(e.Position)) })
}

func (b *Board) MouseOut() {
	b.down = false
	b.do(func(eng *engine.Engine) { eng.PointerLeave() })
}

func (b *Board) Tapped(e *fyne.PointEvent) {
	b.do(func(eng *engine.Engine) { eng.Click(point(e.Position)) })
}

func (b *Board) DoubleTapped(e *fyne.PointEvent) {
	b.do(func(eng *engine.Engine) { eng.DoubleClick(point(e.Position)) })
}

// Scrolled pans the board, or zooms at the pointer with Ctrl/Cmd held.
func (b *Board) Scrolled(e *fyne.ScrollEvent) {
	zoom := false
	if drv, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
		mods := drv.CurrentKeyModifiers()
		zoom = mods&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0
	}
	// fyne reports scroll as content movement; the engine expects wheel deltas.
	dx, dy := -float64(e.Scrolled.DX), -float64(e.Scrolled.DY)
	b.do(func(eng *engine.Engine) { eng.Wheel(dx, dy, point(e.Position), zoom) })
}

func (b *Board) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	b.do(func(eng *engine.Engine) { eng.Resize(float64(size.Width), float64(size.Height)) })
}

func (b *Board) Cursor() desktop.Cursor {
	if b.View().Tool == state.ToolText {
		return desktop.TextCursor
	}
	return desktop.CrosshairCursor
}

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{board: b}
	r.raster = canvas.NewRaster(r.draw)
	return r
}

type boardRenderer struct {
	board  *Board
	raster *canvas.Raster
}

func (r *boardRenderer) draw(w, h int) image.Image {
	density := 1.0
	if size := r.board.Size(); size.Width > 0 {
		density = float64(w) / float64(size.Width)
	}
	return paint(r.board.View(), w, h, density)
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.raster}
}

func (r *boardRenderer) Refresh() {
	r.raster.Refresh()
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardRenderer) Destroy() {}
