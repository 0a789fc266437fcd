package ui

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/atotto/clipboard"

	"redraw/internal/config"
	"redraw/internal/engine"
	"redraw/internal/relay"
	"redraw/internal/session"
	"redraw/internal/state"
)

type Options struct {
	Config config.Config
	Board  string
	// ShareLink is shown with a copy button when this instance hosts the relay.
	ShareLink string
	Logger    *slog.Logger
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	myApp := app.New()
	myWindow := myApp.NewWindow("Redraw")
	myWindow.Resize(fyne.NewSize(1280, 800))

	sess, err := session.Open(ctx, opts.Config, opts.Board,
		session.WithExecutor(fyne.Do),
		session.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("open board: %w", err)
	}
	defer sess.Close()

	banner := newBanner()
	tb := newToolbar(sess)
	board := NewBoard(sess)
	overlay := newEditOverlay(board)
	board.OnViewChanged = func(v engine.View) {
		tb.update(v)
		overlay.sync(v)
	}

	toolbar := tb.build(func() {
		exportDialog(myWindow, func() state.Snapshot { return sess.Engine().Snapshot() }, banner, log)
	})

	status := widget.NewLabel("Connecting…")
	sess.OnStatus(func(connected bool) {
		if connected {
			status.SetText("Connected")
		} else {
			status.SetText("Offline, reconnecting")
		}
	})

	bottom := container.NewHBox(status)
	if dir, err := relay.NewDirectoryClient(opts.Config.RelayURL); err != nil {
		log.Warn("board directory disabled", "err", err)
	} else {
		picker := newBoardPicker(sess, dir, banner, log)
		bottom.Add(widget.NewSeparator())
		bottom.Add(picker.build(myWindow))
		picker.refresh()
	}
	if opts.ShareLink != "" {
		link := widget.NewLabel(opts.ShareLink)
		copyBtn := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			if err := clipboard.WriteAll(opts.ShareLink); err != nil {
				banner.show(fmt.Sprintf("Could not copy link: %v", err))
			}
		})
		bottom.Add(widget.NewSeparator())
		bottom.Add(widget.NewLabel("Share:"))
		bottom.Add(link)
		bottom.Add(copyBtn)
	}

	bindKeys(myWindow, board)
	myApp.Lifecycle().SetOnExitedForeground(func() {
		board.do(func(eng *engine.Engine) { eng.Blur() })
	})

	surface := container.NewStack(board, container.NewWithoutLayout(overlay.entry))
	content := container.NewBorder(container.NewVBox(toolbar, banner.box), bottom, nil, nil, surface)
	myWindow.SetContent(content)

	go func() {
		<-ctx.Done()
		fyne.Do(myApp.Quit)
	}()

	myWindow.ShowAndRun()
	return nil
}

// bindKeys routes undo/redo shortcuts and Delete/Backspace/Escape to the
// engine. Keys typed into a focused entry never reach the board.
func bindKeys(w fyne.Window, board *Board) {
	c := w.Canvas()
	inText := func() bool { return c.Focused() != nil }

	shortcut := func(key fyne.KeyName, mod fyne.KeyModifier, k engine.Key) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) {
			k.InTextInput = inText()
			board.do(func(eng *engine.Engine) { eng.Key(k) })
		})
	}
	shortcut(fyne.KeyZ, fyne.KeyModifierShortcutDefault, engine.Key{Name: "z", Ctrl: true})
	shortcut(fyne.KeyZ, fyne.KeyModifierShortcutDefault|fyne.KeyModifierShift, engine.Key{Name: "z", Ctrl: true, Shift: true})
	shortcut(fyne.KeyY, fyne.KeyModifierShortcutDefault, engine.Key{Name: "y", Ctrl: true})

	c.SetOnTypedKey(func(e *fyne.KeyEvent) {
		switch e.Name {
		case fyne.KeyDelete, fyne.KeyBackspace, fyne.KeyEscape:
			k := engine.Key{Name: string(e.Name), InTextInput: inText()}
			board.do(func(eng *engine.Engine) { eng.Key(k) })
		}
	})
}
