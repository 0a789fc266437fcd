package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"redraw/internal/relay"
	"redraw/internal/session"
)

// banner is a dismissible error strip above the board.
type banner struct {
	text *widget.Label
	box  *fyne.Container
}

func newBanner() *banner {
	b := &banner{text: widget.NewLabel("")}
	b.text.Importance = widget.DangerImportance
	b.text.Wrapping = fyne.TextWrapWord
	closeBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), b.hide)
	closeBtn.Importance = widget.LowImportance
	b.box = container.NewBorder(nil, nil, nil, closeBtn, b.text)
	b.box.Hide()
	return b
}

func (b *banner) show(msg string) {
	b.text.SetText(msg)
	b.box.Show()
}

func (b *banner) hide() {
	b.box.Hide()
}

// boardPicker lists the relay's boards and switches the session between
// them. Directory failures go to the banner; the open board is untouched.
type boardPicker struct {
	sess   *session.Session
	dir    *relay.DirectoryClient
	banner *banner
	log    *slog.Logger

	boards  []relay.Board
	sel     *widget.Select
	current *widget.Label
}

func newBoardPicker(sess *session.Session, dir *relay.DirectoryClient, b *banner, log *slog.Logger) *boardPicker {
	p := &boardPicker{sess: sess, dir: dir, banner: b, log: log}
	p.current = widget.NewLabel("Board: " + sess.Board())
	p.sel = widget.NewSelect(nil, p.choose)
	p.sel.PlaceHolder = "Switch board…"
	return p
}

func (p *boardPicker) build(w fyne.Window) fyne.CanvasObject {
	refresh := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), p.refresh)
	create := widget.NewButtonWithIcon("New board", theme.ContentAddIcon(), func() {
		title := widget.NewEntry()
		title.SetPlaceHolder("Untitled board")
		dialog.ShowForm("New board", "Create", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Title", title)},
			func(ok bool) {
				if ok {
					p.create(title.Text)
				}
			}, w)
	})
	return container.NewHBox(p.current, p.sel, refresh, create)
}

func (p *boardPicker) refresh() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		boards, err := p.dir.List(ctx)
		fyne.Do(func() {
			if err != nil {
				p.log.Warn("board directory unavailable", "err", err)
				p.banner.show(fmt.Sprintf("Could not load boards: %v", err))
				return
			}
			p.setBoards(boards)
		})
	}()
}

func (p *boardPicker) create(title string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b, err := p.dir.Create(ctx, title)
		fyne.Do(func() {
			if err != nil {
				p.log.Warn("creating board", "err", err)
				p.banner.show(fmt.Sprintf("Could not create board: %v", err))
				return
			}
			p.setBoards(append([]relay.Board{b}, p.boards...))
			p.switchTo(b.ID)
		})
	}()
}

func (p *boardPicker) setBoards(boards []relay.Board) {
	p.boards = boards
	opts := make([]string, len(boards))
	for i, b := range boards {
		opts[i] = boardOption(b)
	}
	p.sel.SetOptions(opts)
}

func boardOption(b relay.Board) string {
	return fmt.Sprintf("%s (%s)", b.Title, b.ID)
}

func (p *boardPicker) choose(opt string) {
	for _, b := range p.boards {
		if boardOption(b) == opt {
			p.switchTo(b.ID)
			return
		}
	}
}

func (p *boardPicker) switchTo(id string) {
	if err := p.sess.Switch(id); err != nil {
		p.banner.show(fmt.Sprintf("Could not open board: %v", err))
		return
	}
	p.current.SetText("Board: " + id)
	p.banner.hide()
}
