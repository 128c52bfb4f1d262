package viewport

import (
	"log/slog"
	"math"
	"sync"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/render"
	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

const (
	zoomPerPixel     = 0.01
	wheelVOIStep     = 4.0
	defaultMagLevel  = 2.0
	defaultMagRadius = 70
	anglePoints      = 3
)

// ToolSource reports which tool owns an input.
type ToolSource interface {
	ActiveTool(input tools.Input) (tools.Name, bool)
	ToolConfig(name tools.Name) (tools.Config, bool)
}

// AnnotationSink stores committed annotations.
type AnnotationSink interface {
	AddAnnotation(a annotation.Annotation, groupKey string) (annotation.Annotation, error)
}

// Interaction routes pointer input to the active tool of a viewport.
type Interaction struct {
	vp       *StackViewport
	tools    ToolSource
	store    AnnotationSink
	groupKey string
	logger   *slog.Logger

	mu        sync.Mutex
	closed    bool
	dragging  bool
	dragTool  tools.Name
	dragStart geometry.Point2D
	draft     *Draft
	onAdded   func(annotation.Annotation)
	onScroll  func(delta int)
}

// NewInteraction wires pointer handling for vp.
func NewInteraction(vp *StackViewport, ts ToolSource, store AnnotationSink, groupKey string, logger *slog.Logger) *Interaction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interaction{
		vp:       vp,
		tools:    ts,
		store:    store,
		groupKey: groupKey,
		logger:   logger.With(slog.String("component", "interaction")),
	}
}

// OnAnnotationAdded sets a callback for each committed measurement.
func (in *Interaction) OnAnnotationAdded(fn func(annotation.Annotation)) {
	in.mu.Lock()
	in.onAdded = fn
	in.mu.Unlock()
}

// OnScroll sets a callback for wheel input not claimed by a tool. delta is
// +1 for the next frame and -1 for the previous one.
func (in *Interaction) OnScroll(fn func(delta int)) {
	in.mu.Lock()
	in.onScroll = fn
	in.mu.Unlock()
}

// Close detaches the interaction from its viewport. Input received
// afterwards is logged and dropped.
func (in *Interaction) Close() {
	in.mu.Lock()
	in.closed = true
	in.draft = nil
	in.dragging = false
	in.mu.Unlock()
}

// live reports whether input may still reach the viewport.
func (in *Interaction) live(event string) bool {
	in.mu.Lock()
	closed := in.closed
	in.mu.Unlock()
	if closed {
		in.logger.Warn("input after close ignored", slog.String("event", event))
	}
	return !closed
}

func (in *Interaction) render() {
	if err := in.vp.Render(); err != nil {
		in.logger.Error("render failed", slog.Any("error", err))
	}
}

// Drag handles a primary-button drag event at canvas position pos.
func (in *Interaction) Drag(pos, delta geometry.Point2D) {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		in.live("drag")
		return
	}
	if !in.dragging {
		name, ok := in.tools.ActiveTool(tools.InputPrimary)
		if !ok {
			in.mu.Unlock()
			return
		}
		in.dragging = true
		in.dragTool = name
		in.dragStart = pos.Sub(delta)
	}
	name := in.dragTool
	start := in.dragStart
	in.mu.Unlock()

	switch name {
	case tools.Pan:
		in.vp.Pan(delta)
	case tools.Zoom:
		in.vp.ZoomBy(1-delta.Y*zoomPerPixel, start)
	case tools.WindowLevel:
		scale := math.Max(1, in.vp.VOI().Width/256)
		in.vp.AdjustVOI(delta.X*scale, delta.Y*scale)
	case tools.Length, tools.RectangleROI, tools.EllipticalROI:
		a, okA := in.vp.CanvasToWorld(start)
		b, okB := in.vp.CanvasToWorld(pos)
		if !okA || !okB {
			return
		}
		d := &Draft{Tool: name, Points: []geometry.Point3D{a, b}}
		in.mu.Lock()
		in.draft = d
		in.mu.Unlock()
		in.vp.SetDraft(d)
	case tools.Magnify:
		cfg, _ := in.tools.ToolConfig(tools.Magnify)
		in.vp.SetMagnifier(magnifierFor(cfg, pos))
	default:
		return
	}
	in.render()
}

// DragEnd finishes a drag, committing any drawn measurement.
func (in *Interaction) DragEnd() {
	in.mu.Lock()
	wasDragging := in.dragging
	name := in.dragTool
	d := in.draft
	in.dragging = false
	if name != tools.Angle {
		in.draft = nil
	}
	in.mu.Unlock()
	if !wasDragging {
		return
	}

	switch name {
	case tools.Magnify:
		in.vp.SetMagnifier(nil)
	case tools.Length, tools.RectangleROI, tools.EllipticalROI:
		in.vp.SetDraft(nil)
		if d != nil && d.Points[0] != d.Points[1] {
			in.commit(d)
		}
	default:
		return
	}
	in.render()
}

// Tap handles a primary click. Angle collects one vertex per tap.
func (in *Interaction) Tap(pos geometry.Point2D) {
	if !in.live("tap") {
		return
	}
	name, ok := in.tools.ActiveTool(tools.InputPrimary)
	if !ok || name != tools.Angle {
		return
	}
	w, ok := in.vp.CanvasToWorld(pos)
	if !ok {
		return
	}

	in.mu.Lock()
	if in.draft == nil || in.draft.Tool != tools.Angle {
		in.draft = &Draft{Tool: tools.Angle}
	}
	in.draft.Points = append(in.draft.Points, w)
	d := &Draft{Tool: tools.Angle, Points: append([]geometry.Point3D(nil), in.draft.Points...)}
	done := len(d.Points) == anglePoints
	if done {
		in.draft = nil
	}
	in.mu.Unlock()

	if done {
		in.vp.SetDraft(nil)
		in.commit(d)
	} else {
		in.vp.SetDraft(d)
	}
	in.render()
}

// Wheel handles scroll input. dy > 0 scrolls up.
func (in *Interaction) Wheel(dy float64) {
	if dy == 0 || !in.live("wheel") {
		return
	}
	if name, ok := in.tools.ActiveTool(tools.InputWheel); ok && name == tools.WindowLevel {
		in.vp.AdjustVOI(0, math.Copysign(wheelVOIStep, dy))
		in.render()
		return
	}

	in.mu.Lock()
	fn := in.onScroll
	in.mu.Unlock()
	if fn != nil {
		if dy > 0 {
			fn(-1)
		} else {
			fn(1)
		}
	}
}

// Cancel drops any half-drawn annotation.
func (in *Interaction) Cancel() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.draft = nil
	in.dragging = false
	in.mu.Unlock()
	in.vp.SetDraft(nil)
	in.vp.SetMagnifier(nil)
}

func (in *Interaction) commit(d *Draft) {
	imageID, ok := in.vp.CurrentImageID()
	if !ok {
		return
	}
	cam := in.vp.Camera()
	a := annotation.Annotation{
		Metadata: annotation.Metadata{
			ToolName:            d.Tool,
			ViewPlaneNormal:     cam.ViewPlaneNormal,
			ViewUp:              cam.ViewUp,
			FrameOfReferenceUID: in.vp.FrameOfReferenceUID(),
			ReferencedImageID:   imageID,
		},
		Data: annotation.Data{
			Points: d.Points,
			Stats:  annotation.Measure(d.Tool, d.Points, cam.ViewUp, cam.ViewPlaneNormal),
		},
	}
	stored, err := in.store.AddAnnotation(a, in.groupKey)
	if err != nil {
		in.logger.Warn("annotation not stored", slog.String("tool", d.Tool.String()), slog.Any("error", err))
		return
	}
	in.logger.Debug("annotation added", slog.String("tool", d.Tool.String()), slog.String("uid", stored.UID))

	in.mu.Lock()
	fn := in.onAdded
	in.mu.Unlock()
	if fn != nil {
		fn(stored)
	}
}

func magnifierFor(cfg tools.Config, pos geometry.Point2D) *render.Magnifier {
	level := cfg.MagnificationLevel
	if level <= 1 {
		level = defaultMagLevel
	}
	radius := cfg.ElementRadius
	if radius <= 0 {
		radius = defaultMagRadius
	}
	return &render.Magnifier{Center: pos, Radius: radius, Level: level}
}
