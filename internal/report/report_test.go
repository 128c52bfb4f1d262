package report

import (
	"path/filepath"
	"testing"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

func TestPathFor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/data/scan.dcm", "/data/scan.cinereport.json"},
		{"scan", "scan.cinereport.json"},
		{"/data/a.b/echo.DCM", "/data/a.b/echo.cinereport.json"},
	}
	for _, tt := range tests {
		if got := PathFor(tt.in); got != tt.want {
			t.Errorf("PathFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	dicom := filepath.Join(dir, "cine.dcm")
	path := PathFor(dicom)

	r := New(dicom, 12, "toolgroup-1")
	r.Annotations = append(r.Annotations, annotation.Annotation{
		UID:      "a-1",
		GroupKey: "toolgroup-1",
		Metadata: annotation.Metadata{ToolName: tools.Length, ReferencedImageID: "dicomfile:cine.dcm?frame=3"},
		Data: annotation.Data{
			Points: []geometry.Point3D{geometry.NewPoint3D(0, 0, 0), geometry.NewPoint3D(3, 4, 0)},
			Stats:  &annotation.Measurement{Value: 5, Unit: "mm"},
		},
	})
	if err := r.Save(path); err != nil {
		t.Fatal(err)
	}
	if r.DicomPath != "cine.dcm" {
		t.Errorf("stored DicomPath = %q, want relative", r.DicomPath)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != FormatVersion || got.Frames != 12 || got.GroupKey != "toolgroup-1" {
		t.Errorf("loaded header %+v", got)
	}
	if got.GetDicomPath(path) != dicom {
		t.Errorf("GetDicomPath = %q, want %q", got.GetDicomPath(path), dicom)
	}
	if len(got.Annotations) != 1 {
		t.Fatalf("got %d annotations", len(got.Annotations))
	}
	a := got.Annotations[0]
	if a.ToolName != tools.Length || a.Stats == nil || a.Stats.Value != 5 || len(a.Points) != 2 {
		t.Errorf("annotation = %+v", a)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.cinereport.json")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}
