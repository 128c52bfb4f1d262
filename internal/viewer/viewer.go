// Package viewer assembles one cine viewer session: a loaded stack, its
// viewport and tool group, and the controllers that drive them.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/app"
	"cine-viewer/internal/config"
	"cine-viewer/internal/dicomstack"
	"cine-viewer/internal/report"
	"cine-viewer/internal/tools"
	"cine-viewer/internal/viewport"
)

// Magnify inset settings.
const (
	MagnifyLevel  = 2.0
	MagnifyRadius = 70
)

// Loader loads the stack shown by a viewer.
type Loader func(ctx context.Context, path string) (*dicomstack.Stack, error)

// Deps are the collaborators a viewer is opened with. Every field is
// optional.
type Deps struct {
	// Surface delivers double-clicks for labels. Nil disables labelling.
	Surface Surface
	// Presenter receives rendered frames. Nil renders offscreen.
	Presenter viewport.Presenter
	Clock     Clock
	Logger    *slog.Logger
	// State receives the session events. A new one is created when nil.
	State  *app.State
	Loader Loader
}

// Viewer is one open cine viewer.
type Viewer struct {
	ID       string
	GroupKey string

	State       *app.State
	Stack       *dicomstack.Stack
	Viewport    *viewport.StackViewport
	Tools       *tools.Manager
	Group       *tools.Group
	Annotations *annotation.Store
	Interaction *viewport.Interaction

	Navigator   *Navigator
	Player      *Player
	Coordinator *ToolCoordinator
	Labels      *LabelWorkflow

	cfg       *config.Config
	logger    *slog.Logger
	h         *handles
	closeOnce sync.Once
}

// Open loads cfg.DicomPath and builds a ready viewer. Steps run in order:
// load stack, create viewport, set stack, create tool group, register tools,
// bind viewport, wire annotations and labels. Any failure is reported as
// ErrInit on the returned error and as EventLoadFailed on deps.State.
func Open(ctx context.Context, cfg *config.Config, deps Deps) (*Viewer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	state := deps.State
	if state == nil {
		state = app.NewState()
	}
	load := deps.Loader
	if load == nil {
		load = dicomstack.Load
	}

	id := uuid.NewString()[:8]
	logger = logger.With(slog.String("viewer", id))

	fail := func(err error) (*Viewer, error) {
		err = fmt.Errorf("%w: %w", ErrInit, err)
		logger.Error("viewer initialization failed", slog.String("path", cfg.DicomPath), slog.Any("error", err))
		state.SetLoadFailed(cfg.DicomPath, err)
		return nil, err
	}

	if cfg.DicomPath == "" {
		return fail(fmt.Errorf("no DICOM file configured"))
	}
	stack, err := load(ctx, cfg.DicomPath)
	if err != nil {
		return fail(err)
	}
	count := stack.Count()
	if count <= 0 {
		return fail(dicomstack.ErrNoFrames)
	}
	meta := stack.Metadata()
	if meta.Rows <= 0 || meta.Columns <= 0 {
		return fail(fmt.Errorf("%w: %dx%d", dicomstack.ErrUnsupportedPixels, meta.Columns, meta.Rows))
	}
	if _, err := stack.Frame(0); err != nil {
		return fail(err)
	}

	vp := viewport.New("viewport-"+id, deps.Presenter, logger)
	if err := vp.SetStack(stack, 0); err != nil {
		return fail(err)
	}

	manager := tools.NewManager()
	group, err := manager.CreateToolGroup("toolgroup-" + id)
	if err != nil {
		return fail(err)
	}
	for _, name := range tools.All() {
		if err := manager.AddTool(name); err != nil {
			return fail(err)
		}
		var tc []tools.Config
		if name == tools.Magnify {
			tc = append(tc, tools.Config{MagnificationLevel: MagnifyLevel, ElementRadius: MagnifyRadius})
		}
		if err := group.AddTool(name, tc...); err != nil {
			return fail(err)
		}
	}
	group.AddViewport(vp.ID())

	groupKey := group.ID()
	if cfg.AnnotationScope == config.ScopeViewer {
		groupKey = vp.ID()
	}
	store := annotation.NewStore()
	vp.SetAnnotationSource(store)

	v := &Viewer{
		ID:          id,
		GroupKey:    groupKey,
		State:       state,
		Stack:       stack,
		Viewport:    vp,
		Tools:       manager,
		Group:       group,
		Annotations: store,
		cfg:         cfg,
		logger:      logger,
		h:           newHandles(vp, group, store),
	}

	v.Navigator = newNavigator(v.h, state, logger)
	v.Navigator.Load(count, 0)

	base := meta.FrameInterval()
	if base <= 0 {
		base = time.Duration(float64(time.Second) / cfg.FrameRate)
	}
	v.Player = newPlayer(v.Navigator, deps.Clock, base, cfg.EndPolicy, cfg.Speed, state, logger)
	v.Coordinator = newToolCoordinator(v.h, state, logger)
	v.Labels = newLabelWorkflow(v.h, v.Coordinator, state, groupKey, logger)

	v.Interaction = viewport.NewInteraction(vp, group, store, groupKey, logger)
	v.Interaction.OnAnnotationAdded(func(a annotation.Annotation) {
		state.Emit(app.EventAnnotationAdded, a)
	})
	v.Interaction.OnScroll(func(delta int) {
		v.Navigator.Step(delta)
	})
	v.Labels.Attach(deps.Surface)

	if err := v.Coordinator.SelectTool(cfg.DefaultTool); err != nil {
		logger.Warn("default tool not selected", slog.String("tool", cfg.DefaultTool.String()), slog.Any("error", err))
	}

	logger.Info("stack loaded",
		slog.String("path", cfg.DicomPath),
		slog.Int("frames", count),
		slog.Int("rows", meta.Rows),
		slog.Int("columns", meta.Columns),
		slog.Duration("interval", base),
	)
	state.SetLoaded(cfg.DicomPath, count)
	if err := vp.Render(); err != nil {
		logger.Error("first render failed", slog.Any("error", err))
	}
	id0, _ := vp.CurrentImageID()
	state.Emit(app.EventFrameChanged, app.FrameChanged{Index: 0, Count: count, ImageID: id0})
	return v, nil
}

// Close stops playback, drops the double-click subscription and releases the
// tool group. Commands issued afterwards are no-ops.
func (v *Viewer) Close() {
	v.closeOnce.Do(func() {
		v.Labels.Detach()
		v.Interaction.Close()
		v.Player.Close()
		v.h.clear()
		v.Tools.DestroyToolGroup(v.Group.ID())
		v.logger.Debug("viewer closed")
	})
}

// Flip mirrors the view horizontally or vertically.
func (v *Viewer) Flip(horizontal bool) {
	vp := v.h.viewport()
	if vp == nil {
		v.logger.Warn("flip without viewport")
		return
	}
	v.Viewport.Flip(horizontal)
	v.renderCamera()
}

// ResetView restores the default camera and VOI.
func (v *Viewer) ResetView() {
	if v.h.viewport() == nil {
		v.logger.Warn("reset without viewport")
		return
	}
	v.Viewport.Reset()
	v.renderCamera()
}

func (v *Viewer) renderCamera() {
	if err := v.Viewport.Render(); err != nil {
		v.logger.Error("render failed", slog.Any("error", err))
	}
	v.State.Emit(app.EventCameraChanged, v.Viewport.Camera())
}

// FrameInterval returns the interval between frames at 1x speed.
func (v *Viewer) FrameInterval() time.Duration {
	return v.Player.BaseInterval()
}

// DumpMeasurements logs every stored annotation and returns them.
func (v *Viewer) DumpMeasurements() []annotation.Annotation {
	store := v.h.annotations()
	if store == nil {
		v.logger.Warn("measurements requested without annotation store")
		return nil
	}
	all := store.GetAllAnnotations()
	v.logger.Info("measurements", slog.Int("count", len(all)))
	for _, a := range all {
		attrs := []any{
			slog.String("uid", a.UID),
			slog.String("tool", a.ToolName.String()),
			slog.String("imageId", a.ReferencedImageID),
			slog.String("groupKey", a.GroupKey),
		}
		if a.Text != "" {
			attrs = append(attrs, slog.String("text", a.Text))
		}
		if a.Stats != nil {
			attrs = append(attrs, slog.Float64("value", a.Stats.Value), slog.String("unit", a.Stats.Unit))
		}
		v.logger.Info("annotation", attrs...)
	}
	return all
}

// ExportMeasurements writes every stored annotation to a report file and
// returns its path. An empty path writes next to the DICOM file.
func (v *Viewer) ExportMeasurements(path string) (string, error) {
	store := v.h.annotations()
	if store == nil {
		return "", ErrNotReady
	}
	if path == "" {
		path = report.PathFor(v.Stack.Path())
	}
	r := report.New(v.Stack.Path(), v.Stack.Count(), v.GroupKey)
	r.Annotations = append(r.Annotations, store.GetAllAnnotations()...)
	if err := r.Save(path); err != nil {
		return "", fmt.Errorf("export measurements: %w", err)
	}
	v.logger.Info("measurements exported", slog.String("file", path), slog.Int("count", len(r.Annotations)))
	return path, nil
}
