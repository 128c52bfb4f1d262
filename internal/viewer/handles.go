package viewer

import "sync"

// handles holds the collaborators shared by the controllers. They are all
// cleared on Close, after which commands become logged no-ops.
type handles struct {
	mu    sync.RWMutex
	vp    Viewport
	group ToolGroup
	store AnnotationStore
}

func newHandles(vp Viewport, group ToolGroup, store AnnotationStore) *handles {
	return &handles{vp: vp, group: group, store: store}
}

func (h *handles) viewport() Viewport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.vp
}

func (h *handles) toolGroup() ToolGroup {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.group
}

func (h *handles) annotations() AnnotationStore {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store
}

func (h *handles) clear() {
	h.mu.Lock()
	h.vp, h.group, h.store = nil, nil, nil
	h.mu.Unlock()
}
