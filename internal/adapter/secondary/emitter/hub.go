package emitter

import (
	"sync"

	"github.com/google/uuid"

	"volume-bridge/internal/domain"
)

// Handler receives emitted events.
type Handler func(name string, event domain.VolumeChangedEvent)

// Hub implements domain.EventEmitter by fanning events out to in-process
// subscribers. It rejects events until MarkReady is called, mirroring a host
// that is still loading.
type Hub struct {
	mu       sync.RWMutex
	ready    bool
	handlers map[uuid.UUID]Handler
}

// NewHub creates a hub that is not ready yet.
func NewHub() *Hub {
	return &Hub{handlers: make(map[uuid.UUID]Handler)}
}

// MarkReady lets Emit deliver events from now on.
func (h *Hub) MarkReady() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = true
}

// Ready reports whether the hub accepts events.
func (h *Hub) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Subscribe registers fn and returns the function that removes it.
func (h *Hub) Subscribe(fn Handler) (id uuid.UUID, cancel func()) {
	id = uuid.New()
	h.mu.Lock()
	h.handlers[id] = fn
	h.mu.Unlock()

	return id, func() {
		h.mu.Lock()
		delete(h.handlers, id)
		h.mu.Unlock()
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}

// Emit delivers event to every subscriber. Handlers run on the caller's
// goroutine and must not block.
func (h *Hub) Emit(name string, event domain.VolumeChangedEvent) error {
	h.mu.RLock()
	if !h.ready {
		h.mu.RUnlock()
		return domain.ErrEmitterNotReady
	}
	handlers := make([]Handler, 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(name, event)
	}
	return nil
}
