// Package policy enforces compliance gating between routing and loading.
// The gate fails closed: anything it cannot positively verify is denied.
package policy

import (
	"context"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/metrics"
)

// Reason is a denial reason code. Codes are the only denial detail exposed
// to callers; section content and titles never leave the gate.
type Reason string

// Denial reason constants.
const (
	ReasonPHIClearance      Reason = "phi_clearance_required"
	ReasonPIIClearance      Reason = "pii_clearance_required"
	ReasonResidencyMismatch Reason = "residency_mismatch"
	ReasonMetadataMissing   Reason = "security_metadata_missing"
)

// Denial records one denied candidate: identifier and reason only.
type Denial struct {
	SectionID string
	Reason    Reason
}

// Service filters ranked candidates against the caller context.
type Service struct {
	snapshots SnapshotProvider
	audit     AuditRecorder
	logger    *zap.Logger
}

// New creates a policy gate. audit may be nil (denials are still logged
// and counted, just not persisted).
func New(snapshots SnapshotProvider, audit AuditRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{snapshots: snapshots, audit: audit, logger: logger}
}

// Filter removes candidates the caller may not see, preserving rank order.
// Denials are non-fatal: the allowed remainder is returned alongside the
// denial log. Audit persistence is best effort and never blocks the
// pipeline.
func (s *Service) Filter(
	ctx context.Context, cands []candidate.Score, caller query.Caller,
) ([]candidate.Score, []Denial, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	snap, err := s.snapshots.Current()
	if err != nil {
		return nil, nil, err
	}

	allowed := make([]candidate.Score, 0, len(cands))
	var denials []Denial

	for i := range cands {
		sec, ok := snap.Section(cands[i].SectionID())
		if !ok {
			// Candidate from a different snapshot generation: deny, fail closed.
			denials = append(denials, s.deny(ctx, cands[i].SectionID(), ReasonMetadataMissing, caller))
			continue
		}
		if reason, ok := s.evaluate(sec.Security(), caller); !ok {
			denials = append(denials, s.deny(ctx, sec.ID(), reason, caller))
			continue
		}
		allowed = append(allowed, cands[i])
	}

	return allowed, denials, nil
}

// evaluate checks one section's security metadata against the caller.
func (s *Service) evaluate(sec section.Security, caller query.Caller) (Reason, bool) {
	if sec.PHI() && !caller.PHIClearance() {
		return ReasonPHIClearance, false
	}
	if sec.PII() && !caller.PIIClearance() {
		return ReasonPIIClearance, false
	}
	if r := sec.Residency(); r != "" && r != caller.Region() {
		return ReasonResidencyMismatch, false
	}
	return "", true
}

// deny logs, counts, and (best effort) persists a denial.
func (s *Service) deny(ctx context.Context, sectionID string, reason Reason, caller query.Caller) Denial {
	d := Denial{SectionID: sectionID, Reason: reason}

	s.logger.Info("candidate denied",
		zap.String("section_id", sectionID),
		zap.String("reason", string(reason)),
		zap.String("caller_region", caller.Region()),
	)
	metrics.PolicyDenialsTotal.WithLabelValues(string(reason)).Inc()

	if s.audit != nil {
		if err := s.audit.RecordDenial(ctx, d, caller); err != nil {
			s.logger.Warn("audit record failed",
				zap.String("section_id", sectionID), zap.Error(err))
		}
	}
	return d
}
