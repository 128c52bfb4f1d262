package viewer

import (
	"cine-viewer/internal/annotation"
	"cine-viewer/internal/tools"
	"cine-viewer/internal/viewport"
	"cine-viewer/pkg/geometry"
)

// Viewport is the rendering surface the controllers drive.
type Viewport interface {
	ID() string
	SetImageIDIndex(index int) error
	CurrentImageIDIndex() int
	CurrentImageID() (string, bool)
	CanvasToWorld(p geometry.Point2D) (geometry.Point3D, bool)
	Camera() viewport.Camera
	FrameOfReferenceUID() string
	Render() error
}

// ToolGroup is the tool registry view used for tool selection.
type ToolGroup interface {
	ID() string
	SetToolActive(name tools.Name, inputs ...tools.Input) error
	SetToolPassive(name tools.Name) error
}

// AnnotationStore keeps committed annotations.
type AnnotationStore interface {
	AddAnnotation(a annotation.Annotation, groupKey string) (annotation.Annotation, error)
	GetAllAnnotations() []annotation.Annotation
}

// DoubleClick is a double-click on the viewport surface. Canvas is relative
// to the rendered canvas; Screen is where a text entry should appear.
type DoubleClick struct {
	Canvas geometry.Point2D
	Screen geometry.Point2D
}

// Surface delivers double-clicks. The returned function unsubscribes.
type Surface interface {
	SubscribeDoubleClick(fn func(DoubleClick)) (unsubscribe func())
}
