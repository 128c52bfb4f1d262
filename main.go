// Package main provides the entry point for the Cine Viewer application.
package main

import (
	"context"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/lmittmann/tint"

	"cine-viewer/internal/app"
	"cine-viewer/internal/config"
	"cine-viewer/internal/version"
	"cine-viewer/ui/mainwindow"
)

func main() {
	prefs := config.LoadPrefs()
	cfg, cfgErr := config.Load(prefs)

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	if cfgErr != nil {
		logger.Error("invalid configuration", slog.Any("error", cfgErr))
		os.Exit(1)
	}
	logger.Info("starting cine viewer", slog.String("version", version.Version), slog.String("commit", version.GitCommit))

	// Handle command line arguments
	if len(os.Args) > 1 {
		cfg.DicomPath = os.Args[1]
	}

	a := fyneapp.NewWithID("io.cineviewer")
	a.Settings().SetTheme(&app.CineTheme{})

	win := mainwindow.New(a, cfg, prefs, logger)
	win.Resize(fyne.NewSize(900, 760))

	if cfg.DicomPath != "" {
		if err := win.Open(context.Background()); err != nil {
			logger.Error("failed to open file", slog.String("path", cfg.DicomPath), slog.Any("error", err))
		}
	} else {
		logger.Info("no file given, use File > Open DICOM")
	}

	win.ShowAndRun()
}
