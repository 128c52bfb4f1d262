package viewer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/app"
	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

// LabelState is the state of the label entry workflow.
type LabelState int

const (
	LabelIdle LabelState = iota
	LabelAwaitingText
)

func (s LabelState) String() string {
	if s == LabelAwaitingText {
		return "AwaitingText"
	}
	return "Idle"
}

// PendingLabel is a label waiting for its text.
type PendingLabel struct {
	WorldPosition  geometry.Point3D
	ImageID        string
	ScreenPosition geometry.Point2D
	Text           string

	previous    tools.Name
	hasPrevious bool
}

// LabelWorkflow turns a double-click plus typed text into a Label annotation.
type LabelWorkflow struct {
	h        *handles
	coord    *ToolCoordinator
	state    *app.State
	groupKey string
	logger   *slog.Logger

	mu          sync.Mutex
	pending     *PendingLabel
	unsubscribe func()
}

func newLabelWorkflow(h *handles, coord *ToolCoordinator, state *app.State, groupKey string, logger *slog.Logger) *LabelWorkflow {
	return &LabelWorkflow{
		h:        h,
		coord:    coord,
		state:    state,
		groupKey: groupKey,
		logger:   logger.With(slog.String("component", "label")),
	}
}

// Attach subscribes to double-clicks on surface, replacing any previous
// subscription.
func (l *LabelWorkflow) Attach(surface Surface) {
	if surface == nil {
		return
	}
	unsub := surface.SubscribeDoubleClick(l.HandleDoubleClick)

	l.mu.Lock()
	old := l.unsubscribe
	l.unsubscribe = unsub
	l.mu.Unlock()
	if old != nil {
		old()
	}
}

// Detach drops the double-click subscription.
func (l *LabelWorkflow) Detach() {
	l.mu.Lock()
	unsub := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// State returns the workflow state.
func (l *LabelWorkflow) State() LabelState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		return LabelAwaitingText
	}
	return LabelIdle
}

// Pending returns a copy of the pending label, if any.
func (l *LabelWorkflow) Pending() (PendingLabel, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return PendingLabel{}, false
	}
	return *l.pending, true
}

// SetText records the text typed so far.
func (l *LabelWorkflow) SetText(text string) {
	l.mu.Lock()
	if l.pending != nil {
		l.pending.Text = text
	}
	l.mu.Unlock()
}

// HandleDoubleClick starts a label entry at the clicked point. A point off
// the image or a viewport without an image returns the workflow to Idle.
// The viewport decides what is off the image: CanvasToWorld fails there.
func (l *LabelWorkflow) HandleDoubleClick(ev DoubleClick) {
	vp := l.h.viewport()
	if vp == nil {
		l.abort("no viewport")
		return
	}
	world, ok := vp.CanvasToWorld(ev.Canvas)
	if !ok {
		l.abort("no world position")
		return
	}
	imageID, ok := vp.CurrentImageID()
	if !ok || imageID == "" {
		l.abort("no image")
		return
	}

	prev, hasPrev := l.coord.beginLabel()
	p := &PendingLabel{
		WorldPosition:  world,
		ImageID:        imageID,
		ScreenPosition: ev.Screen,
		previous:       prev,
		hasPrevious:    hasPrev,
	}
	l.mu.Lock()
	l.pending = p
	l.mu.Unlock()

	l.logger.Debug("label entry started", slog.String("imageId", imageID))
	l.state.Emit(app.EventLabelEntryStarted, app.LabelEntryStarted{ScreenPosition: ev.Screen, ImageID: imageID})
}

func (l *LabelWorkflow) abort(reason string) {
	l.logger.Debug("label entry aborted", slog.String("reason", reason))
	l.mu.Lock()
	had := l.pending != nil
	l.pending = nil
	l.mu.Unlock()
	if had {
		l.coord.endLabel()
		l.state.Emit(app.EventLabelEntryEnded, app.LabelEntryEnded{})
	}
}

// Commit stores the pending label with text. Blank text cancels the entry
// and returns nil. When a precondition fails the entry stays open and
// ErrLabelPrecondition is returned.
func (l *LabelWorkflow) Commit(text string) (*annotation.Annotation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		l.Cancel()
		return nil, nil
	}

	l.mu.Lock()
	p := l.pending
	l.mu.Unlock()
	if p == nil {
		return nil, fmt.Errorf("%w: no pending position", ErrLabelPrecondition)
	}
	if p.ImageID == "" {
		return nil, fmt.Errorf("%w: no image", ErrLabelPrecondition)
	}
	vp, group, store := l.h.viewport(), l.h.toolGroup(), l.h.annotations()
	if vp == nil || group == nil || store == nil {
		l.logger.Warn("label commit without viewer handles")
		return nil, fmt.Errorf("%w: viewer not ready", ErrLabelPrecondition)
	}

	cam := vp.Camera()
	a := annotation.Annotation{
		Metadata: annotation.Metadata{
			ToolName:            tools.Label,
			ViewPlaneNormal:     cam.ViewPlaneNormal,
			ViewUp:              cam.ViewUp,
			FrameOfReferenceUID: vp.FrameOfReferenceUID(),
			ReferencedImageID:   p.ImageID,
		},
		Data: annotation.Data{
			Text:   text,
			Points: []geometry.Point3D{p.WorldPosition},
		},
	}
	stored, err := store.AddAnnotation(a, l.groupKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLabelPrecondition, err)
	}

	l.coord.finishLabel(group, p.previous, p.hasPrevious)

	l.mu.Lock()
	if l.pending == p {
		l.pending = nil
	}
	l.mu.Unlock()

	if err := vp.Render(); err != nil {
		l.logger.Error("render failed", slog.Any("error", err))
	}
	l.logger.Info("label added", slog.String("uid", stored.UID), slog.String("text", text))
	l.state.Emit(app.EventAnnotationAdded, stored)
	l.state.Emit(app.EventLabelEntryEnded, app.LabelEntryEnded{Committed: true, Annotation: &stored})
	return &stored, nil
}

// Cancel discards the pending label without touching tool state.
func (l *LabelWorkflow) Cancel() {
	l.mu.Lock()
	had := l.pending != nil
	l.pending = nil
	l.mu.Unlock()
	if !had {
		return
	}
	l.coord.endLabel()
	l.logger.Debug("label entry cancelled")
	l.state.Emit(app.EventLabelEntryEnded, app.LabelEntryEnded{})
}
