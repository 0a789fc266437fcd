package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"redraw/internal/export"
	"redraw/internal/state"
)

// exportDialog asks for a destination and writes the snapshot as PDF or PNG
// depending on the chosen extension.
func exportDialog(w fyne.Window, snap func() state.Snapshot, banner *banner, log *slog.Logger) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			banner.show(fmt.Sprintf("Export failed: %v", err))
			return
		}
		if wc == nil {
			return
		}
		defer func() {
			if err := wc.Close(); err != nil {
				log.Warn("closing export file", "err", err)
			}
		}()

		s := snap()
		ext := strings.ToLower(wc.URI().Extension())
		switch ext {
		case ".png":
			err = export.PNG(wc, s, export.DefaultOptions())
		default:
			err = export.PDF(wc, s)
		}
		switch {
		case errors.Is(err, export.ErrEmpty):
			banner.show("Nothing to export: the board is empty")
		case err != nil:
			log.Error("export", "path", wc.URI().Path(), "err", err)
			banner.show(fmt.Sprintf("Export failed: %v", err))
		default:
			log.Info("exported board", "path", wc.URI().Path(), "elements", len(s.Elements), "texts", len(s.Texts))
		}
	}, w)
	d.SetFileName("board.pdf")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".png"}))
	d.Show()
}
