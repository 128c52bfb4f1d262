// Package report writes and reads measurement reports (.cinereport.json)
// that sit next to the DICOM file they describe.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cine-viewer/internal/annotation"
)

// Ext is the report file extension.
const Ext = ".cinereport.json"

// FormatVersion is written into every report.
const FormatVersion = 1

// File is a measurement report for one DICOM file.
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// DicomPath is relative to the report file when possible.
	DicomPath string `json:"dicom"`
	Frames    int    `json:"frames"`
	GroupKey  string `json:"groupKey,omitempty"`

	Annotations []annotation.Annotation `json:"annotations"`
}

// New creates a report for dicomPath.
func New(dicomPath string, frames int, groupKey string) *File {
	now := time.Now()
	return &File{
		Version:     FormatVersion,
		Created:     now,
		Modified:    now,
		DicomPath:   dicomPath,
		Frames:      frames,
		GroupKey:    groupKey,
		Annotations: []annotation.Annotation{},
	}
}

// PathFor returns the default report path for a DICOM file:
// scan.dcm becomes scan.cinereport.json in the same directory.
func PathFor(dicomPath string) string {
	base := strings.TrimSuffix(dicomPath, filepath.Ext(dicomPath))
	return base + Ext
}

// Load reads a report file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r File
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return &r, nil
}

// Save writes the report to path, storing the DICOM path relative to it.
func (r *File) Save(path string) error {
	r.Modified = time.Now()
	r.SetDicomPath(path, r.DicomPath)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetDicomPath sets the DICOM path (relative to the report).
func (r *File) SetDicomPath(reportPath, dicomPath string) {
	if !filepath.IsAbs(dicomPath) {
		r.DicomPath = dicomPath
		return
	}
	rel, err := filepath.Rel(filepath.Dir(reportPath), dicomPath)
	if err != nil {
		r.DicomPath = dicomPath
	} else {
		r.DicomPath = rel
	}
}

// GetDicomPath returns the absolute path to the DICOM file.
func (r *File) GetDicomPath(reportPath string) string {
	if r.DicomPath == "" {
		return ""
	}
	if filepath.IsAbs(r.DicomPath) {
		return r.DicomPath
	}
	return filepath.Join(filepath.Dir(reportPath), r.DicomPath)
}
