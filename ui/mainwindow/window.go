// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/app"
	"cine-viewer/internal/config"
	"cine-viewer/internal/version"
	"cine-viewer/internal/viewer"
	"cine-viewer/pkg/geometry"
	"cine-viewer/ui/canvas"
)

const appTitle = "Cine Viewer"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	cfg    *config.Config
	prefs  *config.Prefs
	logger *slog.Logger

	canvas    *canvas.ImageCanvas
	viewer    *viewer.Viewer
	statusBar *widget.Label

	transport *transport
	toolbar   *toolbar
	label     *labelPopup

	// loader overrides how stacks are read; nil reads DICOM files.
	loader viewer.Loader
}

// New creates a new main window. Call Open to load the configured file.
func New(fyneApp fyne.App, cfg *config.Config, prefs *config.Prefs, logger *slog.Logger) *MainWindow {
	if logger == nil {
		logger = slog.Default()
	}
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  app.NewState(),
		cfg:    cfg,
		prefs:  prefs,
		logger: logger.With(slog.String("component", "mainwindow")),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.SetOnClosed(mw.shutdown)

	return mw
}

// State returns the session state the window listens to.
func (mw *MainWindow) State() *app.State {
	return mw.state
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas()
	mw.statusBar = widget.NewLabel("Ready")
	mw.transport = newTransport(mw)
	mw.toolbar = newToolbar(mw)
	mw.label = newLabelPopup(mw)

	bottom := container.NewVBox(
		mw.transport.container(),
		container.NewPadded(mw.statusBar),
	)

	content := container.NewBorder(
		mw.toolbar.container(), // top
		bottom,                 // bottom
		nil,                    // left
		nil,                    // right
		mw.canvas,              // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(900, 760))
	mw.setControlsEnabled(false)

	mw.Canvas().SetOnTypedKey(mw.onKey)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	recent := fyne.NewMenuItem("Open Recent", nil)
	for _, path := range mw.prefs.Recent() {
		recent.ChildMenu = appendItem(recent.ChildMenu, fyne.NewMenuItem(path, func() {
			mw.cfg.DicomPath = path
			_ = mw.Open(context.Background())
		}))
	}
	recent.Disabled = recent.ChildMenu == nil

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open DICOM...", mw.onOpenFile),
		recent,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Flip Horizontal", func() { mw.withViewer(func(v *viewer.Viewer) { v.Flip(true) }) }),
		fyne.NewMenuItem("Flip Vertical", func() { mw.withViewer(func(v *viewer.Viewer) { v.Flip(false) }) }),
		fyne.NewMenuItem("Reset View", func() { mw.withViewer(func(v *viewer.Viewer) { v.ResetView() }) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

func appendItem(m *fyne.Menu, item *fyne.MenuItem) *fyne.Menu {
	if m == nil {
		m = fyne.NewMenu("")
	}
	m.Items = append(m.Items, item)
	return m
}

// setupEventHandlers registers for viewer events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventLoaded, func(data interface{}) {
		if frames, ok := data.(int); ok {
			mw.transport.setFrameCount(frames)
		}
	})

	mw.state.On(app.EventLoadFailed, func(data interface{}) {
		mw.setControlsEnabled(false)
		if err, ok := data.(error); ok {
			mw.updateStatus("Load failed: " + err.Error())
		}
	})

	mw.state.On(app.EventFrameChanged, func(data interface{}) {
		if ev, ok := data.(app.FrameChanged); ok {
			mw.transport.showFrame(ev)
		}
	})

	mw.state.On(app.EventPlaybackChanged, func(data interface{}) {
		if ev, ok := data.(app.PlaybackChanged); ok {
			mw.transport.showPlayback(ev)
		}
	})

	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if ev, ok := data.(app.ToolChanged); ok {
			mw.toolbar.showActive(ev.Tool)
			mw.prefs.SetTool(ev.Tool)
		}
	})

	mw.state.On(app.EventLabelEntryStarted, func(data interface{}) {
		if ev, ok := data.(app.LabelEntryStarted); ok {
			mw.label.show(ev.ScreenPosition)
		}
	})

	mw.state.On(app.EventLabelEntryEnded, func(data interface{}) {
		mw.label.hide()
	})

	mw.state.On(app.EventAnnotationAdded, func(data interface{}) {
		if a, ok := data.(annotation.Annotation); ok {
			mw.updateStatus(describe(a))
		}
	})
}

// Open loads the configured file into a new viewer, replacing any open one.
// On failure an error dialog is shown and the controls stay disabled.
func (mw *MainWindow) Open(ctx context.Context) error {
	if mw.viewer != nil {
		mw.viewer.Close()
		mw.viewer = nil
	}
	mw.setControlsEnabled(false)
	mw.updateStatus("Loading " + mw.cfg.DicomPath)

	v, err := viewer.Open(ctx, mw.cfg, viewer.Deps{
		Surface:   mw.canvas,
		Presenter: mw.canvas,
		Logger:    mw.logger,
		State:     mw.state,
		Loader:    mw.loader,
	})
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return err
	}
	mw.viewer = v
	mw.wireCanvas(v)

	if err := v.Player.SetSpeed(mw.cfg.Speed); err != nil {
		mw.logger.Warn("configured speed rejected", slog.Any("error", err))
	}
	mw.prefs.AddRecent(mw.cfg.DicomPath)
	mw.setupMenus()
	mw.SetTitle(appTitle + " - " + filepath.Base(mw.cfg.DicomPath))
	mw.setControlsEnabled(true)
	mw.transport.setNavigable(v.Navigator.Navigable())
	mw.transport.showFrame(app.FrameChanged{Index: v.Navigator.Index(), Count: v.Navigator.Count()})
	mw.updateStatus(fmt.Sprintf("Loaded %d frames", v.Navigator.Count()))
	return nil
}

func (mw *MainWindow) wireCanvas(v *viewer.Viewer) {
	mw.canvas.OnDrag(v.Interaction.Drag)
	mw.canvas.OnDragEnd(v.Interaction.DragEnd)
	mw.canvas.OnTap(func(pos geometry.Point2D) { v.Interaction.Tap(pos) })
	mw.canvas.OnWheel(v.Interaction.Wheel)
	mw.canvas.OnResize(func(w, h int) image.Image {
		v.Viewport.Resize(w, h)
		img, err := v.Viewport.RenderImage()
		if err != nil {
			mw.logger.Warn("render after resize failed", slog.Any("error", err))
			return nil
		}
		return img
	})
	size := mw.canvas.Size()
	if scale := mw.Canvas().Scale(); size.Width > 0 && size.Height > 0 {
		v.Viewport.Resize(int(size.Width*scale), int(size.Height*scale))
		if err := v.Viewport.Render(); err != nil {
			mw.logger.Warn("render failed", slog.Any("error", err))
		}
	}
}

// withViewer runs fn when a viewer is open.
func (mw *MainWindow) withViewer(fn func(v *viewer.Viewer)) {
	if mw.viewer == nil {
		mw.logger.Warn("command ignored, no viewer open")
		return
	}
	fn(mw.viewer)
}

func (mw *MainWindow) setControlsEnabled(enabled bool) {
	mw.transport.setEnabled(enabled)
	mw.toolbar.setEnabled(enabled)
}

func (mw *MainWindow) onKey(ev *fyne.KeyEvent) {
	mw.withViewer(func(v *viewer.Viewer) {
		switch ev.Name {
		case fyne.KeySpace:
			v.Player.Toggle()
		case fyne.KeyLeft:
			v.Navigator.Prev()
		case fyne.KeyRight:
			v.Navigator.Next()
		case fyne.KeyEscape:
			v.Interaction.Cancel()
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the directory of the last opened file as a
// ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.LastFile()
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(path)))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) onOpenFile() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.cfg.DicomPath = reader.URI().Path()
		_ = mw.Open(context.Background())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".dcm", ".dicom", ".DCM"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Multi-frame DICOM cine playback with measurement tools.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// shutdown stops playback and persists preferences.
func (mw *MainWindow) shutdown() {
	if mw.viewer != nil {
		mw.viewer.Close()
		mw.viewer = nil
	}
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("preferences not saved", slog.Any("error", err))
	}
}

func describe(a annotation.Annotation) string {
	switch {
	case a.Text != "":
		return fmt.Sprintf("%s: %q", a.ToolName, a.Text)
	case a.Stats != nil:
		return fmt.Sprintf("%s: %.2f %s", a.ToolName, a.Stats.Value, a.Stats.Unit)
	default:
		return a.ToolName.String() + " added"
	}
}
