package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"cine-viewer/internal/tools"
)

const prefsFile = "preferences.json"

// MaxRecent bounds the recent files list.
const MaxRecent = 8

type prefValues struct {
	LastFile string   `json:"lastFile,omitempty"`
	Recent   []string `json:"recent,omitempty"`
	Speed    float64  `json:"speed,omitempty"`
	Tool     string   `json:"tool,omitempty"`
}

// Prefs holds the settings remembered between runs. It is safe for
// concurrent use.
type Prefs struct {
	mu    sync.RWMutex
	path  string
	v     prefValues
	dirty bool
}

// LoadPrefs reads preferences from ~/.config/cine-viewer/preferences.json.
// A missing or unreadable file yields empty Prefs.
func LoadPrefs() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadPrefsFrom(filepath.Join(configDir, "cine-viewer", prefsFile))
}

// LoadPrefsFrom reads preferences from path.
func LoadPrefsFrom(path string) *Prefs {
	p := &Prefs{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	if err := json.Unmarshal(data, &p.v); err != nil {
		p.v = prefValues{}
	}
	return p
}

// Path returns the backing file.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk when anything changed since the last save.
func (p *Prefs) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return nil
	}
	data, err := json.MarshalIndent(p.v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return err
	}
	p.dirty = false
	return nil
}

// LastFile returns the most recently opened file, or "".
func (p *Prefs) LastFile() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.v.LastFile
}

// Recent returns recently opened files, newest first.
func (p *Prefs) Recent() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.v.Recent)
}

// AddRecent records path as the last opened file and moves it to the front
// of the recent list.
func (p *Prefs) AddRecent(path string) {
	if path == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.v.LastFile = path
	recent := []string{path}
	for _, r := range p.v.Recent {
		if r != path && len(recent) < MaxRecent {
			recent = append(recent, r)
		}
	}
	p.v.Recent = recent
	p.dirty = true
}

// Speed returns the saved playback multiplier, or fallback.
func (p *Prefs) Speed(fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.v.Speed > 0 {
		return p.v.Speed
	}
	return fallback
}

// SetSpeed stores the playback multiplier.
func (p *Prefs) SetSpeed(m float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.v.Speed != m {
		p.v.Speed = m
		p.dirty = true
	}
}

// Tool returns the saved tool. ok is false when none is saved or the saved
// name is not a known tool.
func (p *Prefs) Tool() (name tools.Name, ok bool) {
	p.mu.RLock()
	s := p.v.Tool
	p.mu.RUnlock()
	name, err := tools.Parse(s)
	return name, err == nil
}

// SetTool stores the active tool.
func (p *Prefs) SetTool(name tools.Name) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s := name.String(); p.v.Tool != s {
		p.v.Tool = s
		p.dirty = true
	}
}
