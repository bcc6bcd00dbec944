package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/offload/internal/device"
)

// MemoryHost keeps declared integration headers in memory.
//
// The CLI has no device runtime to load kernels into, so "declaring" a
// header means keeping its text as the active one. At most one header is
// live at a time once the engine has unloaded the previous artifact.
//
// Thread-safety: all methods are safe for concurrent use.
type MemoryHost struct {
	mu      sync.Mutex
	headers map[device.ArtifactID]string
	active  device.ArtifactID
	next    int
}

// NewMemoryHost creates an empty host.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{headers: make(map[device.ArtifactID]string)}
}

// Declare implements device.Host.
func (h *MemoryHost) Declare(_ context.Context, header string) (device.ArtifactID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := device.ArtifactID(fmt.Sprintf("header-%d", h.next))
	h.headers[id] = header
	h.active = id
	return id, nil
}

// Unload implements device.Host.
func (h *MemoryHost) Unload(_ context.Context, id device.ArtifactID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.headers[id]; !ok {
		return fmt.Errorf("unload %s: unknown artifact", id)
	}
	delete(h.headers, id)
	if h.active == id {
		h.active = ""
	}
	return nil
}

// Active returns the live artifact and its header.
func (h *MemoryHost) Active() (device.ArtifactID, string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active == "" {
		return "", "", false
	}
	return h.active, h.headers[h.active], true
}

// Live returns the number of declared, not yet unloaded headers.
func (h *MemoryHost) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.headers)
}
