package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"redraw/internal/engine"
	"redraw/internal/export"
	"redraw/internal/session"
	"redraw/internal/state"
)

var strokePalette = []string{"#1e1e1e", "#e03131", "#2f9e44", "#1971c2", "#f08c00"}
var fillPalette = []string{"transparent", "#ffc9c9", "#b2f2bb", "#a5d8ff", "#ffec99"}

var toolNames = []struct {
	label string
	tool  state.Tool
}{
	{"Select", state.ToolSelect},
	{"Rect", state.ToolRectangle},
	{"Ellipse", state.ToolEllipse},
	{"Line", state.ToolLine},
	{"Arrow", state.ToolArrow},
	{"Pen", state.ToolPen},
	{"Text", state.ToolText},
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Value    string
	OnTapped func(string)
}

func newColorSwatch(value string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Value: value, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	var fill color.Color = color.Transparent
	if c, ok := export.ParseColor(s.Value, 100); ok {
		fill = c
	}
	rect := canvas.NewRectangle(fill)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Value)
	}
}

// toolbar owns the current tool and style and pushes them into whichever
// engine is active, so a board switch keeps the user's choices.
type toolbar struct {
	sess  *session.Session
	tool  state.Tool
	style state.Style

	tools *widget.RadioGroup
	zoom  *widget.Label
	undo  *widget.Button
	redo  *widget.Button
}

// newToolbar must run before NewBoard so a switched engine gets the tool
// and style before its first repaint.
func newToolbar(sess *session.Session) *toolbar {
	t := &toolbar{sess: sess, tool: state.ToolRectangle, style: state.DefaultStyle()}
	sess.OnSwitch(t.apply)
	return t
}

func (t *toolbar) do(fn func(*engine.Engine)) {
	fn(t.sess.Engine())
}

func (t *toolbar) apply(eng *engine.Engine) {
	eng.SetTool(t.tool)
	eng.SetStyle(t.style)
}

func (t *toolbar) setStyle(fn func(*state.Style)) {
	fn(&t.style)
	t.do(func(eng *engine.Engine) { eng.SetStyle(t.style) })
}

// update reflects engine state that can change without the toolbar.
func (t *toolbar) update(v engine.View) {
	if t.zoom == nil {
		return
	}
	t.zoom.SetText(fmt.Sprintf("%d%%", int(v.Viewport.Scale*100+0.5)))
	eng := t.sess.Engine()
	setEnabled(t.undo, eng.CanUndo())
	setEnabled(t.redo, eng.CanRedo())
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (t *toolbar) build(onExport func()) fyne.CanvasObject {
	labels := make([]string, len(toolNames))
	for i, n := range toolNames {
		labels[i] = n.label
	}
	t.tools = widget.NewRadioGroup(labels, func(label string) {
		for _, n := range toolNames {
			if n.label == label && n.tool != t.tool {
				t.tool = n.tool
				t.do(func(eng *engine.Engine) { eng.SetTool(n.tool) })
			}
		}
	})
	t.tools.Horizontal = true
	t.tools.Required = true
	t.tools.SetSelected("Rect")

	strokeBox := container.NewHBox()
	for _, c := range strokePalette {
		strokeBox.Add(newColorSwatch(c, func(v string) {
			t.setStyle(func(s *state.Style) { s.Stroke = v })
		}))
	}
	fillBox := container.NewHBox()
	for _, c := range fillPalette {
		fillBox.Add(newColorSwatch(c, func(v string) {
			t.setStyle(func(s *state.Style) {
				s.BackgroundColor = v
				s.FillStyle = "solid"
				if v == "transparent" {
					s.FillStyle = "none"
				}
			})
		}))
	}

	// --- Stroke Width Slider ---
	strokeSlider := widget.NewSlider(1.0, 20.0)
	strokeSlider.SetValue(t.style.StrokeWidth)
	strokeSlider.OnChanged = func(val float64) {
		t.setStyle(func(s *state.Style) { s.StrokeWidth = val })
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), strokeSlider)

	dash := widget.NewSelect([]string{string(state.StrokeSolid), string(state.StrokeDashed), string(state.StrokeDotted)}, func(v string) {
		t.setStyle(func(s *state.Style) { s.StrokeStyle = state.StrokeStyle(v) })
	})
	dash.SetSelected(string(t.style.StrokeStyle))

	opacity := widget.NewSlider(10, 100)
	opacity.SetValue(t.style.Opacity)
	opacity.OnChanged = func(val float64) {
		t.setStyle(func(s *state.Style) { s.Opacity = val })
	}
	opacityContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(90, 35)), opacity)

	t.undo = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() {
		t.do(func(eng *engine.Engine) { eng.Undo() })
	})
	t.redo = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), func() {
		t.do(func(eng *engine.Engine) { eng.Redo() })
	})
	t.zoom = widget.NewLabel("100%")

	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			t.do(func(eng *engine.Engine) { eng.DeleteSelected() })
		}),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			t.do(func(eng *engine.Engine) { eng.Clear() })
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() {
			t.do(func(eng *engine.Engine) { eng.ZoomBy(-0.1) })
		}),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() {
			t.do(func(eng *engine.Engine) { eng.SetScale(1) })
		}),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() {
			t.do(func(eng *engine.Engine) { eng.ZoomBy(0.1) })
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
	)

	// --- Assemble everything ---
	top := container.NewHBox(
		t.tools,
		layout.NewSpacer(),
		t.undo, t.redo,
		actions,
		t.zoom,
	)
	bottom := container.NewHBox(
		widget.NewLabel("Stroke:"),
		strokeBox,
		widget.NewSeparator(),
		widget.NewLabel("Fill:"),
		fillBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		dash,
		widget.NewLabel("Opacity:"),
		opacityContainer,
		layout.NewSpacer(),
	)
	return container.NewVBox(top, bottom)
}
