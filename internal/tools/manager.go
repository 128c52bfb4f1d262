package tools

import (
	"fmt"
	"sync"
)

// Manager tracks registered tools and the groups created from them.
// Each viewer instance owns its own Manager.
type Manager struct {
	mu         sync.RWMutex
	registered map[Name]bool
	groups     map[string]*Group
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		registered: make(map[Name]bool),
		groups:     make(map[string]*Group),
	}
}

// AddTool registers a tool so groups may add it.
func (m *Manager) AddTool(name Name) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTool, int(name))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered[name] = true
	return nil
}

// IsRegistered reports whether a tool has been registered.
func (m *Manager) IsRegistered(name Name) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered[name]
}

// CreateToolGroup creates a new, empty tool group.
func (m *Manager) CreateToolGroup(id string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupExists, id)
	}
	g := &Group{
		id:      id,
		manager: m,
		tools:   make(map[Name]*toolState),
	}
	m.groups[id] = g
	return g, nil
}

// GetToolGroup retrieves a group by ID.
func (m *Manager) GetToolGroup(id string) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	return g, nil
}

// DestroyToolGroup removes a group.
func (m *Manager) DestroyToolGroup(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, id)
}
