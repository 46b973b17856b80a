package policy

import (
	"context"

	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/index"
)

// SnapshotProvider yields the current published index snapshot.
type SnapshotProvider interface {
	Current() (*index.Snapshot, error)
}

// AuditRecorder persists denial records for audit. Implementations must
// never receive section text or titles, only identifiers and reasons.
type AuditRecorder interface {
	RecordDenial(ctx context.Context, d Denial, caller query.Caller) error
}
