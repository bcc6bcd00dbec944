package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/offload/internal/device"
)

// ErrDeclareRejected is returned by RecordingHost for scheduled failures.
var ErrDeclareRejected = errors.New("host rejected header")

// RecordingHost records every declare and unload.
//
// Thread-safety: all methods are safe for concurrent use.
type RecordingHost struct {
	mu       sync.Mutex
	declared []string
	unloaded []device.ArtifactID
	live     map[device.ArtifactID]string
	failures int
	next     int
}

// NewRecordingHost creates an empty host.
func NewRecordingHost() *RecordingHost {
	return &RecordingHost{live: make(map[device.ArtifactID]string)}
}

// FailNextDeclare makes the next n declares fail.
func (h *RecordingHost) FailNextDeclare(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures += n
}

// Declare implements device.Host.
func (h *RecordingHost) Declare(_ context.Context, header string) (device.ArtifactID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failures > 0 {
		h.failures--
		return "", ErrDeclareRejected
	}
	h.next++
	id := device.ArtifactID(fmt.Sprintf("artifact-%d", h.next))
	h.declared = append(h.declared, header)
	h.live[id] = header
	return id, nil
}

// Unload implements device.Host.
func (h *RecordingHost) Unload(_ context.Context, id device.ArtifactID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.live[id]; !ok {
		return fmt.Errorf("unload %s: not declared", id)
	}
	delete(h.live, id)
	h.unloaded = append(h.unloaded, id)
	return nil
}

// Declared returns every accepted header in order.
func (h *RecordingHost) Declared() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.declared...)
}

// Unloaded returns every unloaded handle in order.
func (h *RecordingHost) Unloaded() []device.ArtifactID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]device.ArtifactID(nil), h.unloaded...)
}

// Live returns the number of installed headers.
func (h *RecordingHost) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}
