// Package annotation holds measurement and label annotations and the
// in-memory store that groups them per tool group.
package annotation

import (
	"time"

	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

// Metadata describes where an annotation was made.
type Metadata struct {
	ToolName            tools.Name       `json:"toolName"`
	ViewPlaneNormal     geometry.Point3D `json:"viewPlaneNormal"`
	ViewUp              geometry.Point3D `json:"viewUp"`
	FrameOfReferenceUID string           `json:"frameOfReferenceUID,omitempty"`
	ReferencedImageID   string           `json:"referencedImageId"`
}

// Data is the annotation payload. Points are world coordinates.
type Data struct {
	Text   string             `json:"text,omitempty"`
	Points []geometry.Point3D `json:"points"`
	Stats  *Measurement       `json:"stats,omitempty"`
}

// Annotation is a committed annotation record. Metadata and Data fields are
// promoted.
type Annotation struct {
	UID       string `json:"annotationUID"`
	GroupKey  string `json:"groupKey"`
	Metadata  `json:"metadata"`
	Data      `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

// Measurement is a derived value for measurement tools.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}
