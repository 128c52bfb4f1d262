package mainwindow

import (
	"errors"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"cine-viewer/internal/viewer"
	"cine-viewer/pkg/geometry"
)

// labelEntry is a text entry that cancels on Escape and on focus loss.
type labelEntry struct {
	widget.Entry
	onCancel func()
}

func newLabelEntry() *labelEntry {
	e := &labelEntry{}
	e.ExtendBaseWidget(e)
	e.SetPlaceHolder("Label text")
	return e
}

// TypedKey implements fyne.Focusable.
func (e *labelEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyEscape {
		if e.onCancel != nil {
			e.onCancel()
		}
		return
	}
	e.Entry.TypedKey(key)
}

// FocusLost implements fyne.Focusable.
func (e *labelEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.onCancel != nil {
		e.onCancel()
	}
}

// labelPopup floats a labelEntry where the user double-clicked.
type labelPopup struct {
	mw    *MainWindow
	entry *labelEntry
	popup *widget.PopUp
}

func newLabelPopup(mw *MainWindow) *labelPopup {
	lp := &labelPopup{mw: mw, entry: newLabelEntry()}
	lp.entry.OnChanged = func(text string) {
		if v := mw.viewer; v != nil {
			v.Labels.SetText(text)
		}
	}
	lp.entry.OnSubmitted = lp.commit
	lp.entry.onCancel = lp.cancel
	return lp
}

func (lp *labelPopup) show(at geometry.Point2D) {
	if lp.popup == nil {
		lp.popup = widget.NewPopUp(lp.entry, lp.mw.Canvas())
	}
	lp.entry.SetText("")
	lp.popup.Resize(fyne.NewSize(220, lp.entry.MinSize().Height))
	lp.popup.ShowAtPosition(fyne.NewPos(float32(at.X), float32(at.Y)))
	lp.mw.Canvas().Focus(lp.entry)
}

func (lp *labelPopup) hide() {
	if lp.popup != nil && lp.popup.Visible() {
		lp.popup.Hide()
	}
}

func (lp *labelPopup) commit(text string) {
	v := lp.mw.viewer
	if v == nil {
		lp.hide()
		return
	}
	if _, err := v.Labels.Commit(text); err != nil {
		if errors.Is(err, viewer.ErrLabelPrecondition) {
			lp.mw.updateStatus("Label not added: " + err.Error())
			return
		}
		lp.mw.logger.Error("label commit failed", slog.Any("error", err))
	}
}

func (lp *labelPopup) cancel() {
	if v := lp.mw.viewer; v != nil {
		v.Labels.Cancel()
	}
	lp.hide()
}
