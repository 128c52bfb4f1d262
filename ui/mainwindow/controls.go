package mainwindow

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"cine-viewer/internal/app"
	"cine-viewer/internal/tools"
	"cine-viewer/internal/viewer"
)

// transport holds the playback controls under the canvas.
type transport struct {
	mw *MainWindow

	prev     *widget.Button
	play     *widget.Button
	pause    *widget.Button
	next     *widget.Button
	speed    *widget.Select
	slider   *widget.Slider
	timecode *widget.Label

	navigable atomic.Bool
	// syncing is set while the slider follows a frame change, so the
	// resulting OnChanged does not seek again.
	syncing atomic.Bool
}

func newTransport(mw *MainWindow) *transport {
	t := &transport{mw: mw}

	t.prev = widget.NewButton("Prev", func() {
		mw.withViewer(func(v *viewer.Viewer) { v.Navigator.Prev() })
	})
	t.play = widget.NewButton("Play", func() {
		mw.withViewer(func(v *viewer.Viewer) { v.Player.Play() })
	})
	t.pause = widget.NewButton("Pause", func() {
		mw.withViewer(func(v *viewer.Viewer) { v.Player.Pause() })
	})
	t.next = widget.NewButton("Next", func() {
		mw.withViewer(func(v *viewer.Viewer) { v.Navigator.Next() })
	})

	options := make([]string, len(viewer.Speeds))
	for i, s := range viewer.Speeds {
		options[i] = formatSpeed(s)
	}
	t.speed = widget.NewSelect(options, t.onSpeed)
	t.speed.SetSelected(formatSpeed(mw.cfg.Speed))

	t.slider = widget.NewSlider(1, 2)
	t.slider.Step = 1
	t.slider.OnChanged = func(value float64) {
		if t.syncing.Load() {
			return
		}
		mw.withViewer(func(v *viewer.Viewer) { v.Navigator.Seek(int(value) - 1) })
	}

	t.timecode = widget.NewLabel("0 / 0  00:00.00")
	return t
}

func (t *transport) container() fyne.CanvasObject {
	buttons := container.NewHBox(t.prev, t.play, t.pause, t.next, t.speed, t.timecode)
	return container.NewBorder(nil, nil, buttons, nil, t.slider)
}

func (t *transport) onSpeed(selected string) {
	m, err := parseSpeed(selected)
	if err != nil {
		return
	}
	t.mw.prefs.SetSpeed(m)
	t.mw.cfg.Speed = m
	if v := t.mw.viewer; v != nil {
		if err := v.Player.SetSpeed(m); err != nil {
			t.mw.updateStatus(err.Error())
		}
	}
}

func (t *transport) setFrameCount(frames int) {
	t.syncing.Store(true)
	t.slider.Min = 1
	t.slider.Max = float64(frames)
	if t.slider.Max <= t.slider.Min {
		t.slider.Max = t.slider.Min + 1
	}
	t.slider.SetValue(1)
	t.syncing.Store(false)
	t.setNavigable(frames > 1)
}

// setNavigable hides the scrub bar and disables playback for a single frame.
func (t *transport) setNavigable(navigable bool) {
	t.navigable.Store(navigable)
	if navigable {
		t.slider.Show()
		t.play.Enable()
		t.prev.Enable()
		t.next.Enable()
		return
	}
	t.slider.Hide()
	t.play.Disable()
	t.pause.Disable()
	t.prev.Disable()
	t.next.Disable()
}

func (t *transport) setEnabled(enabled bool) {
	for _, w := range []fyne.Disableable{t.prev, t.play, t.pause, t.next, t.speed, t.slider} {
		setEnabled(w, enabled)
	}
	if !enabled {
		return
	}
	t.setNavigable(t.navigable.Load())
	t.pause.Disable()
}

func (t *transport) showFrame(ev app.FrameChanged) {
	t.syncing.Store(true)
	t.slider.SetValue(float64(ev.Index + 1))
	t.syncing.Store(false)

	text := viewer.FormatPosition(ev.Index, ev.Count, 0)
	if v := t.mw.viewer; v != nil {
		text = v.Navigator.Timecode(v.FrameInterval())
	}
	t.timecode.SetText(text)
}

func (t *transport) showPlayback(ev app.PlaybackChanged) {
	if !t.navigable.Load() {
		return
	}
	if ev.Playing {
		t.play.Disable()
		t.pause.Enable()
	} else {
		t.play.Enable()
		t.pause.Disable()
	}
}

func formatSpeed(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64) + "x"
}

func parseSpeed(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(s, "x"), 64)
}

// toolbar holds the tool buttons and view actions above the canvas.
type toolbar struct {
	mw      *MainWindow
	buttons map[tools.Name]*widget.Button
	actions []*widget.Button
	box     *fyne.Container
}

func newToolbar(mw *MainWindow) *toolbar {
	tb := &toolbar{mw: mw, buttons: make(map[tools.Name]*widget.Button)}
	box := container.NewHBox()

	for _, name := range tools.Selectable() {
		btn := widget.NewButton(name.String(), func() {
			mw.withViewer(func(v *viewer.Viewer) {
				if err := v.Coordinator.SelectTool(name); err != nil {
					mw.updateStatus(err.Error())
				}
			})
		})
		tb.buttons[name] = btn
		box.Add(btn)
	}
	box.Add(widget.NewSeparator())

	tb.actions = []*widget.Button{
		widget.NewButton("Flip H", func() { mw.withViewer(func(v *viewer.Viewer) { v.Flip(true) }) }),
		widget.NewButton("Flip V", func() { mw.withViewer(func(v *viewer.Viewer) { v.Flip(false) }) }),
		widget.NewButton("Reset", func() { mw.withViewer(func(v *viewer.Viewer) { v.ResetView() }) }),
		widget.NewButton("Get Measurements", func() {
			mw.withViewer(func(v *viewer.Viewer) {
				all := v.DumpMeasurements()
				path, err := v.ExportMeasurements("")
				if err != nil {
					mw.updateStatus(strconv.Itoa(len(all)) + " annotations logged, report not saved: " + err.Error())
					return
				}
				mw.updateStatus(strconv.Itoa(len(all)) + " annotations saved to " + filepath.Base(path))
			})
		}),
	}
	for _, btn := range tb.actions {
		box.Add(btn)
	}
	tb.box = box
	return tb
}

func (tb *toolbar) container() fyne.CanvasObject {
	return container.NewHScroll(tb.box)
}

func (tb *toolbar) showActive(active tools.Name) {
	for name, btn := range tb.buttons {
		if name == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

func (tb *toolbar) setEnabled(enabled bool) {
	for _, btn := range tb.buttons {
		setEnabled(btn, enabled)
	}
	for _, btn := range tb.actions {
		setEnabled(btn, enabled)
	}
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}
