package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain"
	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/index"
	"github.com/groundline-ai/groundline/internal/lexicon"
)

// --- Mocks ---

type stubSnapshots struct {
	snap *index.Snapshot
	err  error
}

func (s *stubSnapshots) Current() (*index.Snapshot, error) { return s.snap, s.err }

type mockAudit struct {
	denials []Denial
	err     error
}

func (m *mockAudit) RecordDenial(_ context.Context, d Denial, _ query.Caller) error {
	m.denials = append(m.denials, d)
	return m.err
}

// --- Helpers ---

func buildSnapshot(t *testing.T, records []index.SectionRecord) *index.Snapshot {
	t.Helper()
	lex, _ := lexicon.ForDomain("generic", nil, nil)
	snap, err := index.NewBuilder(lex).Build(records)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}

func cand(rec index.SectionRecord) candidate.Score {
	id := section.ComputeID(rec.FileID, rec.Text)
	return candidate.New(id, 1.0, 0, 0, 0, rec.TokenCount, 0, candidate.Rationale{})
}

var secureRecords = []index.SectionRecord{
	{FileID: "open.md", Text: "public clinical guidance", TokenCount: 100,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	{FileID: "phi.md", Text: "patient case history", TokenCount: 100, PHI: true},
	{FileID: "pii.md", Text: "staff contact roster", TokenCount: 100, PII: true},
	{FileID: "eu.md", Text: "regional retention rules", TokenCount: 100, Residency: "eu-west"},
	{FileID: "faq.md", Text: "public billing answers", TokenCount: 100},
}

// --- Tests ---

func TestFilterAllowsClearedCaller(t *testing.T) {
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, nil, zap.NewNop())
	caller := query.NewCaller("eu-west", true, true)

	cands := []candidate.Score{cand(secureRecords[0]), cand(secureRecords[1]), cand(secureRecords[2]), cand(secureRecords[3])}
	allowed, denials, err := svc.Filter(context.Background(), cands, caller)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(allowed) != 4 || len(denials) != 0 {
		t.Errorf("allowed=%d denials=%d, want 4/0", len(allowed), len(denials))
	}
}

func TestFilterDeniesByClearanceAndResidency(t *testing.T) {
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, nil, zap.NewNop())
	caller := query.NewCaller("us-east", false, false)

	cands := []candidate.Score{cand(secureRecords[0]), cand(secureRecords[1]), cand(secureRecords[2]), cand(secureRecords[3])}
	allowed, denials, err := svc.Filter(context.Background(), cands, caller)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(allowed) != 1 || allowed[0].SectionID() != cands[0].SectionID() {
		t.Fatalf("allowed = %+v, want only the open section", allowed)
	}
	want := map[string]Reason{
		cands[1].SectionID(): ReasonPHIClearance,
		cands[2].SectionID(): ReasonPIIClearance,
		cands[3].SectionID(): ReasonResidencyMismatch,
	}
	if len(denials) != len(want) {
		t.Fatalf("denials = %d, want %d", len(denials), len(want))
	}
	for _, d := range denials {
		if want[d.SectionID] != d.Reason {
			t.Errorf("denial %s reason = %s, want %s", d.SectionID, d.Reason, want[d.SectionID])
		}
	}
}

// PHI clearance alone does not grant PII access, and vice versa.
func TestFilterClearancesAreIndependent(t *testing.T) {
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, nil, zap.NewNop())

	phiOnly := query.NewCaller("", true, false)
	_, denials, err := svc.Filter(context.Background(),
		[]candidate.Score{cand(secureRecords[1]), cand(secureRecords[2])}, phiOnly)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(denials) != 1 || denials[0].Reason != ReasonPIIClearance {
		t.Errorf("denials = %+v, want one PII denial", denials)
	}

	piiOnly := query.NewCaller("", false, true)
	_, denials, err = svc.Filter(context.Background(),
		[]candidate.Score{cand(secureRecords[1]), cand(secureRecords[2])}, piiOnly)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(denials) != 1 || denials[0].Reason != ReasonPHIClearance {
		t.Errorf("denials = %+v, want one PHI denial", denials)
	}
}

func TestFilterUnknownSectionFailsClosed(t *testing.T) {
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, nil, zap.NewNop())
	stale := candidate.New("00000000deadbeef", 5.0, 0, 0, 0, 100, 0, candidate.Rationale{})

	allowed, denials, err := svc.Filter(context.Background(),
		[]candidate.Score{stale}, query.NewCaller("eu-west", true, true))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(allowed) != 0 {
		t.Error("unknown section was allowed through")
	}
	if len(denials) != 1 || denials[0].Reason != ReasonMetadataMissing {
		t.Errorf("denials = %+v, want one metadata-missing denial", denials)
	}
}

func TestFilterPreservesRankOrder(t *testing.T) {
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, nil, zap.NewNop())
	caller := query.NewCaller("", false, false)

	// Allowed candidates straddle the denied ones; their relative order
	// must survive filtering.
	cands := []candidate.Score{
		cand(secureRecords[0]),
		cand(secureRecords[1]),
		cand(secureRecords[3]),
		cand(secureRecords[4]),
	}
	allowed, _, err := svc.Filter(context.Background(), cands, caller)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(allowed) != 2 {
		t.Fatalf("allowed = %d, want 2", len(allowed))
	}
	if allowed[0].SectionID() != cands[0].SectionID() || allowed[1].SectionID() != cands[3].SectionID() {
		t.Errorf("rank order not preserved: %+v", allowed)
	}
}

func TestFilterRecordsDenialsToAudit(t *testing.T) {
	audit := &mockAudit{}
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, audit, zap.NewNop())

	_, _, err := svc.Filter(context.Background(),
		[]candidate.Score{cand(secureRecords[1])}, query.NewCaller("", false, false))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(audit.denials) != 1 || audit.denials[0].Reason != ReasonPHIClearance {
		t.Errorf("audit denials = %+v", audit.denials)
	}
}

// A failing audit store never blocks the pipeline.
func TestFilterAuditFailureIsNonFatal(t *testing.T) {
	audit := &mockAudit{err: errors.New("store down")}
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, audit, zap.NewNop())

	allowed, denials, err := svc.Filter(context.Background(),
		[]candidate.Score{cand(secureRecords[0]), cand(secureRecords[1])},
		query.NewCaller("", false, false))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(allowed) != 1 || len(denials) != 1 {
		t.Errorf("allowed=%d denials=%d, want 1/1", len(allowed), len(denials))
	}
}

func TestFilterIndexUnavailable(t *testing.T) {
	svc := New(&stubSnapshots{err: domain.ErrIndexUnavailable}, nil, zap.NewNop())
	_, _, err := svc.Filter(context.Background(), nil, query.Caller{})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("error = %v, want ErrIndexUnavailable", err)
	}
}

func TestFilterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := New(&stubSnapshots{snap: buildSnapshot(t, secureRecords)}, nil, zap.NewNop())
	if _, _, err := svc.Filter(ctx, nil, query.Caller{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
