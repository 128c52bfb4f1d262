// Package app provides per-viewer session state and events.
package app

import (
	"sync"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

// State holds the observable state of one viewer session and its listeners.
// Each viewer owns its own State.
type State struct {
	mu sync.RWMutex

	FilePath   string
	FrameCount int
	Loaded     bool
	LoadError  error

	listeners map[EventType][]EventListener
}

// EventType identifies different viewer events.
type EventType int

const (
	EventLoaded EventType = iota
	EventLoadFailed
	EventFrameChanged
	EventPlaybackChanged
	EventToolChanged
	EventLabelEntryStarted
	EventLabelEntryEnded
	EventAnnotationAdded
	EventCameraChanged
)

func (e EventType) String() string {
	switch e {
	case EventLoaded:
		return "Loaded"
	case EventLoadFailed:
		return "LoadFailed"
	case EventFrameChanged:
		return "FrameChanged"
	case EventPlaybackChanged:
		return "PlaybackChanged"
	case EventToolChanged:
		return "ToolChanged"
	case EventLabelEntryStarted:
		return "LabelEntryStarted"
	case EventLabelEntryEnded:
		return "LabelEntryEnded"
	case EventAnnotationAdded:
		return "AnnotationAdded"
	case EventCameraChanged:
		return "CameraChanged"
	default:
		return "Unknown"
	}
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// FrameChanged is the payload of EventFrameChanged. Index is 0-based.
type FrameChanged struct {
	Index   int
	Count   int
	ImageID string
}

// PlaybackChanged is the payload of EventPlaybackChanged.
type PlaybackChanged struct {
	Playing bool
	Speed   float64
}

// ToolChanged is the payload of EventToolChanged.
type ToolChanged struct {
	Tool tools.Name
}

// LabelEntryStarted is the payload of EventLabelEntryStarted.
type LabelEntryStarted struct {
	ScreenPosition geometry.Point2D
	ImageID        string
}

// LabelEntryEnded is the payload of EventLabelEntryEnded.
type LabelEntryEnded struct {
	Committed  bool
	Annotation *annotation.Annotation
}

// NewState creates an empty session state.
func NewState() *State {
	return &State{
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit sends an event to all registered listeners. Listeners run on the
// caller's goroutine, outside the state lock.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetLoaded records a successful load and emits EventLoaded.
func (s *State) SetLoaded(path string, frames int) {
	s.mu.Lock()
	s.FilePath = path
	s.FrameCount = frames
	s.Loaded = true
	s.LoadError = nil
	s.mu.Unlock()
	s.Emit(EventLoaded, frames)
}

// SetLoadFailed records an initialization failure and emits EventLoadFailed.
func (s *State) SetLoadFailed(path string, err error) {
	s.mu.Lock()
	s.FilePath = path
	s.Loaded = false
	s.LoadError = err
	s.mu.Unlock()
	s.Emit(EventLoadFailed, err)
}

// IsLoaded reports whether a stack loaded successfully.
func (s *State) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loaded
}
