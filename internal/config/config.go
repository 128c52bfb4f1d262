// Package config loads viewer settings from .env files, the environment and
// the user's preferences file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"cine-viewer/internal/tools"
)

// DefaultFrameRate is the cine rate used when neither config nor the file
// specifies one.
const DefaultFrameRate = 30

// ErrInvalid is returned for unparseable configuration values.
var ErrInvalid = errors.New("invalid configuration")

// EndPolicy decides what playback does after the last frame.
type EndPolicy int

const (
	// EndHold stops on the last frame.
	EndHold EndPolicy = iota
	// EndWrap stops and returns to the first frame.
	EndWrap
)

func (p EndPolicy) String() string {
	if p == EndWrap {
		return "wrap"
	}
	return "hold"
}

// ParseEndPolicy parses "hold" or "wrap".
func ParseEndPolicy(s string) (EndPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hold", "":
		return EndHold, nil
	case "wrap":
		return EndWrap, nil
	}
	return EndHold, fmt.Errorf("%w: end policy %q", ErrInvalid, s)
}

// AnnotationScope selects the key annotations are grouped under.
type AnnotationScope int

const (
	// ScopeToolGroup groups annotations by the viewer's tool group.
	ScopeToolGroup AnnotationScope = iota
	// ScopeViewer groups annotations by viewport.
	ScopeViewer
)

func (s AnnotationScope) String() string {
	if s == ScopeViewer {
		return "viewer"
	}
	return "group"
}

// ParseAnnotationScope parses "group" or "viewer".
func ParseAnnotationScope(s string) (AnnotationScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "group", "":
		return ScopeToolGroup, nil
	case "viewer":
		return ScopeViewer, nil
	}
	return ScopeToolGroup, fmt.Errorf("%w: annotation scope %q", ErrInvalid, s)
}

// Config holds viewer settings.
type Config struct {
	DicomPath       string
	FrameRate       float64
	Speed           float64
	EndPolicy       EndPolicy
	DefaultTool     tools.Name
	LogLevel        slog.Level
	AnnotationScope AnnotationScope
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		FrameRate:   DefaultFrameRate,
		Speed:       1,
		EndPolicy:   EndHold,
		DefaultTool: tools.Pan,
		LogLevel:    slog.LevelInfo,
	}
}

// Load reads .env (when present) and the environment. Preferences fill
// values the environment leaves unset; prefs may be nil.
func Load(prefs *Prefs) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment variables")
	}
	return FromEnv(prefs)
}

// FromEnv builds a Config from the current environment without reading .env.
func FromEnv(prefs *Prefs) (*Config, error) {
	cfg := Default()
	if prefs != nil {
		cfg.DicomPath = prefs.LastFile()
		cfg.Speed = prefs.Speed(cfg.Speed)
		if name, ok := prefs.Tool(); ok {
			cfg.DefaultTool = name
		}
	}

	var errs []error
	cfg.DicomPath = getEnv("CINE_DICOM_PATH", cfg.DicomPath)
	cfg.FrameRate = getEnvFloat("CINE_FRAME_RATE", cfg.FrameRate)
	if cfg.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: frame rate %v", ErrInvalid, cfg.FrameRate))
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1
	}

	var err error
	if cfg.EndPolicy, err = ParseEndPolicy(getEnv("CINE_END_POLICY", "hold")); err != nil {
		errs = append(errs, err)
	}
	if cfg.AnnotationScope, err = ParseAnnotationScope(getEnv("CINE_ANNOTATION_SCOPE", "group")); err != nil {
		errs = append(errs, err)
	}
	if v := getEnv("CINE_DEFAULT_TOOL", ""); v != "" {
		name, err := tools.Parse(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		} else {
			cfg.DefaultTool = name
		}
	}
	if v := getEnv("CINE_LOG_LEVEL", ""); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%w: log level %q", ErrInvalid, v))
		}
	}
	return cfg, errors.Join(errs...)
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
