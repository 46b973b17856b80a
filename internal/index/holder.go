package index

import (
	"sync/atomic"

	"github.com/groundline-ai/groundline/internal/domain"
)

// Holder publishes index snapshots behind an atomic pointer. In-flight
// requests keep the snapshot they started with; readers are never exposed
// to a partially built index.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates an empty holder. Current returns ErrIndexUnavailable
// until the first Publish.
func NewHolder() *Holder {
	return &Holder{}
}

// Publish atomically swaps in a new snapshot.
func (h *Holder) Publish(snap *Snapshot) {
	h.current.Store(snap)
}

// Current returns the latest published snapshot.
func (h *Holder) Current() (*Snapshot, error) {
	snap := h.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return snap, nil
}

// Published reports whether a snapshot has been published.
func (h *Holder) Published() bool {
	return h.current.Load() != nil
}
