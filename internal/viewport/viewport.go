// Package viewport implements a stack viewport: one frame of a stack shown
// through a camera, with annotations drawn on top.
package viewport

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/dicomstack"
	"cine-viewer/internal/render"
	"cine-viewer/internal/tools"
	"cine-viewer/pkg/colorutil"
	"cine-viewer/pkg/geometry"
)

// Presenter receives each rendered canvas image.
type Presenter interface {
	Present(img image.Image)
}

// AnnotationSource supplies the annotations drawn over an image.
type AnnotationSource interface {
	ForImage(imageID string) []annotation.Annotation
}

// Draft is an annotation still being drawn, in world coordinates.
type Draft struct {
	Tool   tools.Name
	Points []geometry.Point3D
}

// StackViewport shows one frame of a stack at a time.
type StackViewport struct {
	id     string
	logger *slog.Logger

	mu          sync.Mutex
	stack       *dicomstack.Stack
	index       int
	camera      Camera
	voi         render.VOI
	voiSet      bool
	size        geometry.Size
	presenter   Presenter
	annotations AnnotationSource
	draft       *Draft
	magnifier   *render.Magnifier

	renderMu sync.Mutex
	last     *image.RGBA
}

// New creates an empty viewport. presenter may be nil for offscreen use.
func New(id string, presenter Presenter, logger *slog.Logger) *StackViewport {
	if logger == nil {
		logger = slog.Default()
	}
	return &StackViewport{
		id:        id,
		logger:    logger.With(slog.String("component", "viewport"), slog.String("viewport", id)),
		camera:    defaultCamera(),
		size:      geometry.NewSize(512, 512),
		presenter: presenter,
	}
}

// ID returns the viewport identifier.
func (v *StackViewport) ID() string {
	return v.id
}

// SetStack loads a stack and shows frame initial. The camera and window are
// reset.
func (v *StackViewport) SetStack(s *dicomstack.Stack, initial int) error {
	if s == nil || s.Count() == 0 {
		return ErrNoStack
	}
	if initial < 0 || initial >= s.Count() {
		return fmt.Errorf("%w: %d of %d", ErrIndexRange, initial, s.Count())
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.stack = s
	v.index = initial
	v.camera = defaultCamera()
	v.camera.orient(s.Metadata().Plane)
	v.voiSet = false
	v.draft = nil
	return nil
}

// Stack returns the loaded stack, or nil.
func (v *StackViewport) Stack() *dicomstack.Stack {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stack
}

// SetPresenter replaces the render target.
func (v *StackViewport) SetPresenter(p Presenter) {
	v.mu.Lock()
	v.presenter = p
	v.mu.Unlock()
}

// SetAnnotationSource sets where drawn annotations come from.
func (v *StackViewport) SetAnnotationSource(src AnnotationSource) {
	v.mu.Lock()
	v.annotations = src
	v.mu.Unlock()
}

// SetImageIDIndex selects the displayed frame. It does not render.
func (v *StackViewport) SetImageIDIndex(index int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stack == nil {
		return ErrNoStack
	}
	if index < 0 || index >= v.stack.Count() {
		return fmt.Errorf("%w: %d of %d", ErrIndexRange, index, v.stack.Count())
	}
	v.index = index
	return nil
}

// CurrentImageIDIndex returns the displayed frame index.
func (v *StackViewport) CurrentImageIDIndex() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index
}

// CurrentImageID returns the displayed frame's image ID.
func (v *StackViewport) CurrentImageID() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stack == nil {
		return "", false
	}
	return v.stack.ImageID(v.index)
}

// FrameOfReferenceUID returns the stack's frame of reference.
func (v *StackViewport) FrameOfReferenceUID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stack == nil {
		return ""
	}
	return v.stack.Metadata().FrameOfReferenceUID
}

// Camera returns the current camera.
func (v *StackViewport) Camera() Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}

// SetCamera replaces pan, zoom and flips. View vectors are recomputed.
func (v *StackViewport) SetCamera(c Camera) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c.Zoom = clampZoom(c.Zoom)
	if v.stack != nil {
		c.orient(v.stack.Metadata().Plane)
	}
	v.camera = c
}

// Pan moves the image by a canvas delta.
func (v *StackViewport) Pan(delta geometry.Point2D) {
	v.mu.Lock()
	v.camera.Pan = v.camera.Pan.Add(delta)
	v.mu.Unlock()
}

// ZoomBy scales the zoom by factor, keeping the canvas point about fixed.
func (v *StackViewport) ZoomBy(factor float64, about geometry.Point2D) {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.camera.Zoom
	z := clampZoom(old * factor)
	if z == old {
		return
	}
	// Keep about fixed: pan' = about - c - (about - c - pan) * z/old.
	c := geometry.NewPoint2D(v.size.Width/2, v.size.Height/2)
	rel := about.Sub(c).Sub(v.camera.Pan)
	v.camera.Pan = about.Sub(c).Sub(rel.Scale(z / old))
	v.camera.Zoom = z
}

// Flip toggles horizontal or vertical flip.
func (v *StackViewport) Flip(horizontal bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if horizontal {
		v.camera.FlipHorizontal = !v.camera.FlipHorizontal
	} else {
		v.camera.FlipVertical = !v.camera.FlipVertical
	}
	if v.stack != nil {
		v.camera.orient(v.stack.Metadata().Plane)
	}
}

// Reset restores the default camera and window.
func (v *StackViewport) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera = defaultCamera()
	if v.stack != nil {
		v.camera.orient(v.stack.Metadata().Plane)
	}
	v.voiSet = false
}

// VOI returns the display window.
func (v *StackViewport) VOI() render.VOI {
	v.mu.Lock()
	defer v.mu.Unlock()
	voi, _ := v.currentVOILocked()
	return voi
}

// AdjustVOI changes the window width and center by the given amounts.
func (v *StackViewport) AdjustVOI(dWidth, dCenter float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	voi, ok := v.currentVOILocked()
	if !ok {
		return
	}
	v.voi = voi.Adjust(dWidth, dCenter)
	v.voiSet = true
}

func (v *StackViewport) currentVOILocked() (render.VOI, bool) {
	if v.voiSet {
		return v.voi, true
	}
	if v.stack == nil {
		return render.VOI{}, false
	}
	f, err := v.stack.Frame(v.index)
	if err != nil {
		return render.VOI{}, false
	}
	v.voi = render.DefaultVOI(v.stack.Metadata(), f)
	v.voiSet = true
	return v.voi, true
}

// Resize sets the canvas size in pixels.
func (v *StackViewport) Resize(width, height int) {
	v.mu.Lock()
	v.size = geometry.NewSize(float64(width), float64(height))
	v.mu.Unlock()
}

// Size returns the canvas size.
func (v *StackViewport) Size() geometry.Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// SetDraft sets or clears the in-progress annotation.
func (v *StackViewport) SetDraft(d *Draft) {
	v.mu.Lock()
	v.draft = d
	v.mu.Unlock()
}

// SetMagnifier sets or clears the magnifier inset.
func (v *StackViewport) SetMagnifier(m *render.Magnifier) {
	v.mu.Lock()
	v.magnifier = m
	v.mu.Unlock()
}

func (v *StackViewport) transformLocked() (geometry.AffineTransform, bool) {
	if v.stack == nil {
		return geometry.AffineTransform{}, false
	}
	m := v.stack.Metadata()
	return v.camera.imageToCanvas(m.Columns, m.Rows, v.size), true
}

// CanvasToImage maps a canvas point to image pixel coordinates.
func (v *StackViewport) CanvasToImage(p geometry.Point2D) (geometry.Point2D, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canvasToImageLocked(p)
}

func (v *StackViewport) canvasToImageLocked(p geometry.Point2D) (geometry.Point2D, bool) {
	t, ok := v.transformLocked()
	if !ok {
		return geometry.Point2D{}, false
	}
	inv, ok := t.Inverse()
	if !ok {
		return geometry.Point2D{}, false
	}
	return inv.Apply(p), true
}

// CanvasToWorld maps a canvas point to patient coordinates. ok is false
// without a stack or when p lies outside the image.
func (v *StackViewport) CanvasToWorld(p geometry.Point2D) (geometry.Point3D, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	img, ok := v.canvasToImageLocked(p)
	if !ok {
		return geometry.Point3D{}, false
	}
	m := v.stack.Metadata()
	if img.X < 0 || img.Y < 0 || img.X > float64(m.Columns) || img.Y > float64(m.Rows) {
		return geometry.Point3D{}, false
	}
	return m.Plane.ImageToWorld(img), true
}

// WorldToCanvas maps a patient coordinate to a canvas point.
func (v *StackViewport) WorldToCanvas(w geometry.Point3D) (geometry.Point2D, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t, ok := v.transformLocked()
	if !ok {
		return geometry.Point2D{}, false
	}
	img, ok := v.stack.Metadata().Plane.WorldToImage(w)
	if !ok {
		return geometry.Point2D{}, false
	}
	return t.Apply(img), true
}

// RenderImage draws the current frame and overlays without presenting.
func (v *StackViewport) RenderImage() (*image.RGBA, error) {
	v.renderMu.Lock()
	defer v.renderMu.Unlock()

	scene, err := v.scene()
	if err != nil {
		return nil, err
	}
	img, err := render.Render(scene)
	if err != nil {
		// The frame itself is intact; only overlays are missing.
		v.logger.Warn("overlay render failed", slog.Any("error", err))
	}
	v.last = img
	return img, nil
}

// Render draws the current frame and hands it to the presenter.
func (v *StackViewport) Render() error {
	img, err := v.RenderImage()
	if err != nil {
		v.logger.Warn("render failed", slog.Any("error", err))
		return err
	}
	v.mu.Lock()
	p := v.presenter
	v.mu.Unlock()
	if p != nil {
		p.Present(img)
	}
	return nil
}

// LastImage returns the most recent render, or nil.
func (v *StackViewport) LastImage() *image.RGBA {
	v.renderMu.Lock()
	defer v.renderMu.Unlock()
	return v.last
}

func (v *StackViewport) scene() (render.Scene, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := render.Scene{Width: int(v.size.Width), Height: int(v.size.Height)}
	if v.stack == nil {
		return s, nil
	}
	frame, err := v.stack.Frame(v.index)
	if err != nil {
		return s, err
	}
	voi, _ := v.currentVOILocked()
	meta := v.stack.Metadata()
	t, _ := v.transformLocked()

	s.Frame = frame
	s.VOI = voi
	s.Invert = meta.Monochrome1()
	s.ImageToCanvas = t
	s.Magnifier = v.magnifier
	s.Caption = fmt.Sprintf("Frame %d/%d  W %.0f L %.0f", v.index+1, v.stack.Count(), voi.Width, voi.Center)

	toCanvas := func(w geometry.Point3D) (geometry.Point2D, bool) {
		img, ok := meta.Plane.WorldToImage(w)
		if !ok {
			return geometry.Point2D{}, false
		}
		return t.Apply(img), true
	}

	if v.annotations != nil {
		id, _ := v.stack.ImageID(v.index)
		for _, a := range v.annotations.ForImage(id) {
			if sh, ok := shapeFor(a.Metadata.ToolName, a.Data.Points, toCanvas); ok {
				sh.Color = colorutil.Annotation
				sh.Text = annotationText(a)
				s.Shapes = append(s.Shapes, sh)
			}
		}
	}
	if v.draft != nil {
		if sh, ok := shapeFor(v.draft.Tool, v.draft.Points, toCanvas); ok {
			sh.Color = colorutil.Drawing
			s.Shapes = append(s.Shapes, sh)
		}
	}
	return s, nil
}

func shapeFor(tool tools.Name, world []geometry.Point3D, toCanvas func(geometry.Point3D) (geometry.Point2D, bool)) (render.Shape, bool) {
	pts := make([]geometry.Point2D, 0, len(world))
	for _, w := range world {
		p, ok := toCanvas(w)
		if !ok {
			return render.Shape{}, false
		}
		pts = append(pts, p)
	}
	if len(pts) == 0 {
		return render.Shape{}, false
	}

	sh := render.Shape{Points: pts}
	switch tool {
	case tools.Length:
		sh.Kind = render.ShapeLine
	case tools.RectangleROI:
		sh.Kind = render.ShapeRect
	case tools.EllipticalROI:
		sh.Kind = render.ShapeEllipse
	case tools.Angle:
		sh.Kind = render.ShapePolyline
	case tools.Label:
		sh.Kind = render.ShapeMarker
	default:
		return render.Shape{}, false
	}
	return sh, true
}

func annotationText(a annotation.Annotation) string {
	if a.Data.Text != "" {
		return a.Data.Text
	}
	if m := a.Data.Stats; m != nil {
		return fmt.Sprintf("%.1f %s", m.Value, m.Unit)
	}
	return ""
}
