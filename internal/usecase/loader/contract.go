package loader

import (
	"github.com/groundline-ai/groundline/internal/index"
)

// SnapshotProvider yields the current published index snapshot.
type SnapshotProvider interface {
	Current() (*index.Snapshot, error)
}
