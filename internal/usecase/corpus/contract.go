package corpus

import (
	"context"

	"github.com/groundline-ai/groundline/internal/index"
)

// Publisher swaps a freshly built snapshot into the live holder.
type Publisher interface {
	Publish(snap *index.Snapshot)
}

// SnapshotRecorder persists snapshot publications to the audit trail.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, version string, numSections, numTerms int) error
}
