// Command cinedump opens a DICOM cine file without a window, prints its
// metadata and writes the rendered frames as images.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
	"golang.org/x/image/tiff"

	"cine-viewer/internal/config"
	"cine-viewer/internal/dicomstack"
	"cine-viewer/internal/viewer"
)

func main() {
	outDir := flag.String("out", "", "Directory for rendered frames (metadata only when empty)")
	frames := flag.String("frames", "", "Frame range a:b, 1-based and inclusive (default all)")
	format := flag.String("format", "png", "Output format: png or tiff")
	size := flag.Int("size", 0, "Render size in pixels (default image size)")
	reportPath := flag.String("report", "", "Write a measurement report skeleton to this file")
	flag.Parse()

	cfg, err := config.Load(nil)
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: "15:04:05",
		}),
	)
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.DicomPath = flag.Arg(0)
	}
	if cfg.DicomPath == "" {
		fmt.Println("Usage: cinedump [-out dir] [-frames a:b] [-format png|tiff] [-size px] [-report file] <file.dcm>")
		os.Exit(1)
	}
	encode, ext, err := encoderFor(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	v, err := viewer.Open(context.Background(), cfg, viewer.Deps{Logger: logger})
	if err != nil {
		logger.Error("open failed", slog.Any("error", err))
		if errors.Is(err, viewer.ErrInit) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	defer v.Close()

	printMetadata(os.Stdout, v.Stack)

	if *reportPath != "" {
		if _, err := v.ExportMeasurements(*reportPath); err != nil {
			logger.Error("report failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if *outDir == "" {
		return
	}
	first, last, err := parseRange(*frames, v.Navigator.Count())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Error("cannot create output directory", slog.Any("error", err))
		os.Exit(1)
	}

	m := v.Stack.Metadata()
	w, h := m.Columns, m.Rows
	if *size > 0 {
		w, h = *size, *size
	}
	v.Viewport.Resize(w, h)

	for i := first; i <= last; i++ {
		if !v.Navigator.Seek(i) {
			logger.Warn("seek failed", slog.Int("frame", i+1))
			continue
		}
		img, err := v.Viewport.RenderImage()
		if err != nil {
			logger.Error("render failed", slog.Int("frame", i+1), slog.Any("error", err))
			os.Exit(1)
		}
		name := filepath.Join(*outDir, fmt.Sprintf("frame_%04d.%s", i+1, ext))
		if err := writeImage(name, img, encode); err != nil {
			logger.Error("write failed", slog.String("file", name), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Debug("frame written", slog.String("file", name))
	}
	fmt.Printf("Wrote %d frames to %s\n", last-first+1, *outDir)
}

type encoder func(io.Writer, image.Image) error

func encoderFor(format string) (encoder, string, error) {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode, "png", nil
	case "tiff", "tif":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, "tif", nil
	default:
		return nil, "", fmt.Errorf("unknown format %q", format)
	}
}

func writeImage(name string, img image.Image, encode encoder) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseRange turns "a:b" (1-based, inclusive) into 0-based bounds. Either
// side may be omitted.
func parseRange(s string, count int) (int, int, error) {
	if count < 1 {
		return 0, 0, fmt.Errorf("stack has no frames")
	}
	first, last := 1, count
	if s != "" {
		lo, hi, ok := strings.Cut(s, ":")
		if !ok {
			hi = lo
		}
		var err error
		if lo != "" {
			if first, err = strconv.Atoi(lo); err != nil {
				return 0, 0, fmt.Errorf("bad frame range %q: %w", s, err)
			}
		}
		if hi != "" {
			if last, err = strconv.Atoi(hi); err != nil {
				return 0, 0, fmt.Errorf("bad frame range %q: %w", s, err)
			}
		}
	}
	if first < 1 || last > count || first > last {
		return 0, 0, fmt.Errorf("frame range %d:%d outside 1:%d", first, last, count)
	}
	return first - 1, last - 1, nil
}

func printMetadata(w io.Writer, s *dicomstack.Stack) {
	m := s.Metadata()
	fmt.Fprintf(w, "File:        %s\n", s.Path())
	fmt.Fprintf(w, "Modality:    %s\n", m.Modality)
	if m.SeriesDescription != "" {
		fmt.Fprintf(w, "Series:      %s\n", m.SeriesDescription)
	}
	fmt.Fprintf(w, "Size:        %dx%d\n", m.Columns, m.Rows)
	fmt.Fprintf(w, "Frames:      %d\n", s.Count())
	fmt.Fprintf(w, "Photometric: %s (%d bits stored)\n", m.Photometric, m.BitsStored)
	if m.FrameRate > 0 {
		fmt.Fprintf(w, "Frame rate:  %.2f fps\n", m.FrameRate)
	}
	if m.HasWindow {
		fmt.Fprintf(w, "Window:      C %.1f W %.1f\n", m.WindowCenter, m.WindowWidth)
	}
	if m.FrameOfReferenceUID != "" {
		fmt.Fprintf(w, "FoR UID:     %s\n", m.FrameOfReferenceUID)
	}
}
