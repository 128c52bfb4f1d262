// Package canvas provides the fyne surface a stack viewport renders into.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"cine-viewer/internal/viewer"
	"cine-viewer/pkg/geometry"
)

// ImageCanvas shows the frames presented by a viewport and turns pointer
// events into canvas pixel coordinates.
type ImageCanvas struct {
	widget.BaseWidget

	raster *fynecanvas.Raster

	mu        sync.Mutex
	img       image.Image
	pixelW    int
	pixelH    int
	scale     float32
	subs      map[int]func(viewer.DoubleClick)
	nextSub   int
	onResize  func(w, h int) image.Image
	onDrag    func(pos, delta geometry.Point2D)
	onDragEnd func()
	onTap     func(pos geometry.Point2D)
	onWheel   func(dy float64)
}

// NewImageCanvas creates an empty canvas.
func NewImageCanvas() *ImageCanvas {
	ic := &ImageCanvas{
		scale: 1,
		subs:  make(map[int]func(viewer.DoubleClick)),
	}
	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(fyne.NewSize(256, 256))
	ic.ExtendBaseWidget(ic)
	return ic
}

// Present shows img on the next paint. It is safe to call from any goroutine.
func (ic *ImageCanvas) Present(img image.Image) {
	ic.mu.Lock()
	ic.img = img
	ic.mu.Unlock()
	ic.raster.Refresh()
}

// Image returns the image currently shown.
func (ic *ImageCanvas) Image() image.Image {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.img
}

// OnResize sets the callback run when the pixel size of the canvas changes.
// The returned image, if any, is shown immediately.
func (ic *ImageCanvas) OnResize(fn func(w, h int) image.Image) {
	ic.mu.Lock()
	ic.onResize = fn
	ic.mu.Unlock()
}

// OnDrag sets the primary drag callback.
func (ic *ImageCanvas) OnDrag(fn func(pos, delta geometry.Point2D)) {
	ic.mu.Lock()
	ic.onDrag = fn
	ic.mu.Unlock()
}

// OnDragEnd sets the drag release callback.
func (ic *ImageCanvas) OnDragEnd(fn func()) {
	ic.mu.Lock()
	ic.onDragEnd = fn
	ic.mu.Unlock()
}

// OnTap sets the single click callback.
func (ic *ImageCanvas) OnTap(fn func(pos geometry.Point2D)) {
	ic.mu.Lock()
	ic.onTap = fn
	ic.mu.Unlock()
}

// OnWheel sets the scroll callback. dy > 0 scrolls up.
func (ic *ImageCanvas) OnWheel(fn func(dy float64)) {
	ic.mu.Lock()
	ic.onWheel = fn
	ic.mu.Unlock()
}

// SubscribeDoubleClick registers fn for double-clicks until the returned
// function is called.
func (ic *ImageCanvas) SubscribeDoubleClick(fn func(viewer.DoubleClick)) func() {
	ic.mu.Lock()
	id := ic.nextSub
	ic.nextSub++
	ic.subs[id] = fn
	ic.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ic.mu.Lock()
			delete(ic.subs, id)
			ic.mu.Unlock()
		})
	}
}

// toCanvas converts a widget position to raster pixels.
func (ic *ImageCanvas) toCanvas(p fyne.Position) geometry.Point2D {
	ic.mu.Lock()
	s := ic.scale
	ic.mu.Unlock()
	return geometry.NewPoint2D(float64(p.X*s), float64(p.Y*s))
}

func (ic *ImageCanvas) inside(p fyne.Position) bool {
	size := ic.Size()
	return p.X >= 0 && p.Y >= 0 && p.X <= size.Width && p.Y <= size.Height
}

// Dragged implements fyne.Draggable.
func (ic *ImageCanvas) Dragged(ev *fyne.DragEvent) {
	ic.mu.Lock()
	fn := ic.onDrag
	ic.mu.Unlock()
	if fn == nil {
		return
	}
	pos := ic.toCanvas(ev.Position)
	delta := ic.toCanvas(fyne.NewPos(ev.Dragged.DX, ev.Dragged.DY))
	fn(pos, delta)
}

// DragEnd implements fyne.Draggable.
func (ic *ImageCanvas) DragEnd() {
	ic.mu.Lock()
	fn := ic.onDragEnd
	ic.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Tapped handles left-click events.
func (ic *ImageCanvas) Tapped(ev *fyne.PointEvent) {
	// Fyne can deliver taps outside the widget bounds.
	if !ic.inside(ev.Position) {
		return
	}
	ic.mu.Lock()
	fn := ic.onTap
	ic.mu.Unlock()
	if fn != nil {
		fn(ic.toCanvas(ev.Position))
	}
}

// DoubleTapped notifies double-click subscribers.
func (ic *ImageCanvas) DoubleTapped(ev *fyne.PointEvent) {
	if !ic.inside(ev.Position) {
		return
	}
	click := viewer.DoubleClick{
		Canvas: ic.toCanvas(ev.Position),
		Screen: geometry.NewPoint2D(float64(ev.AbsolutePosition.X), float64(ev.AbsolutePosition.Y)),
	}

	ic.mu.Lock()
	fns := make([]func(viewer.DoubleClick), 0, len(ic.subs))
	for _, fn := range ic.subs {
		fns = append(fns, fn)
	}
	ic.mu.Unlock()

	for _, fn := range fns {
		fn(click)
	}
}

// Scrolled implements fyne.Scrollable.
func (ic *ImageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	ic.mu.Lock()
	fn := ic.onWheel
	ic.mu.Unlock()
	if fn != nil && ev.Scrolled.DY != 0 {
		fn(float64(ev.Scrolled.DY))
	}
}

func (ic *ImageCanvas) draw(w, h int) image.Image {
	ic.mu.Lock()
	resized := w != ic.pixelW || h != ic.pixelH
	ic.pixelW, ic.pixelH = w, h
	if width := ic.Size().Width; width > 0 {
		ic.scale = float32(w) / width
	}
	onResize := ic.onResize
	img := ic.img
	ic.mu.Unlock()

	if resized && onResize != nil && w > 0 && h > 0 {
		if fresh := onResize(w, h); fresh != nil {
			ic.mu.Lock()
			ic.img = fresh
			ic.mu.Unlock()
			img = fresh
		}
	}
	if img == nil {
		return blank(w, h)
	}
	return img
}

func blank(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.raster.MinSize()
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *imageCanvasRenderer) Destroy() {}
