package loader

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain"
	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/domain/workingset"
	"github.com/groundline-ai/groundline/internal/index"
	"github.com/groundline-ai/groundline/internal/lexicon"
)

// --- Mocks ---

type stubSnapshots struct {
	snap *index.Snapshot
	err  error
}

func (s *stubSnapshots) Current() (*index.Snapshot, error) { return s.snap, s.err }

// --- Helpers ---

func rec(fileID, text string, tokens int) index.SectionRecord {
	return index.SectionRecord{FileID: fileID, Text: text, TokenCount: tokens}
}

func buildSnapshot(t *testing.T, records []index.SectionRecord) *index.Snapshot {
	t.Helper()
	lex, _ := lexicon.ForDomain("generic", nil, nil)
	snap, err := index.NewBuilder(lex).Build(records)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}

func cand(r index.SectionRecord, score float64) candidate.Score {
	id := section.ComputeID(r.FileID, r.Text)
	return candidate.New(id, score, 0, 0, 0, r.TokenCount, 0, candidate.Rationale{})
}

// --- Tests ---

func TestLoadAdmitsInRankOrder(t *testing.T) {
	r1 := rec("g.md", "treatment", 400)
	r2 := rec("g.md", "dosing", 300)
	svc := New(&stubSnapshots{snap: buildSnapshot(t, []index.SectionRecord{r1, r2})}, zap.NewNop())

	set, err := svc.Load(context.Background(), []candidate.Score{cand(r1, 2.0), cand(r2, 1.0)}, 1000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Used() != 700 || set.Len() != 2 {
		t.Errorf("used=%d len=%d, want 700/2", set.Used(), set.Len())
	}
	entries := set.Entries()
	e0 := entries[0].Section()
	if e0.ID() != section.ComputeID("g.md", "treatment") {
		t.Error("admission did not follow rank order")
	}
	if entries[0].Rank() != 0 || entries[1].Rank() != 1 {
		t.Errorf("ranks = %d,%d", entries[0].Rank(), entries[1].Rank())
	}
}

// An oversized middle candidate is skipped; later candidates that fit are
// still admitted. Nothing is ever truncated to fit.
func TestLoadSkipsOversizedAndContinues(t *testing.T) {
	r1 := rec("g.md", "first", 400)
	r2 := rec("g.md", "huge", 900)
	r3 := rec("g.md", "third", 500)
	svc := New(&stubSnapshots{snap: buildSnapshot(t, []index.SectionRecord{r1, r2, r3})}, zap.NewNop())

	set, err := svc.Load(context.Background(),
		[]candidate.Score{cand(r1, 3.0), cand(r2, 2.0), cand(r3, 1.0)}, 1000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Contains(section.ComputeID("g.md", "huge")) {
		t.Error("oversized candidate was admitted")
	}
	if !set.Contains(section.ComputeID("g.md", "third")) {
		t.Error("later fitting candidate was not admitted")
	}
	if set.Used() != 900 {
		t.Errorf("used = %d, want 900", set.Used())
	}
}

// When the top-ranked candidate alone exceeds the whole budget the caller
// gets an empty set plus BudgetExceeded so it can decide what to do.
func TestLoadTopCandidateExceedsBudget(t *testing.T) {
	r1 := rec("g.md", "giant", 5000)
	r2 := rec("g.md", "small", 100)
	svc := New(&stubSnapshots{snap: buildSnapshot(t, []index.SectionRecord{r1, r2})}, zap.NewNop())

	set, err := svc.Load(context.Background(), []candidate.Score{cand(r1, 2.0), cand(r2, 1.0)}, 1000)
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("error = %v, want ErrBudgetExceeded", err)
	}
	var be *domain.BudgetExceededError
	if !errors.As(err, &be) {
		t.Fatal("error should carry token counts")
	}
	if be.SectionTokens != 5000 || be.BudgetTokens != 1000 {
		t.Errorf("budget error = %+v", be)
	}
	if set == nil || set.Len() != 0 {
		t.Error("expected an empty working set alongside the error")
	}
}

func TestLoadSkipsStaleCandidates(t *testing.T) {
	r1 := rec("g.md", "current", 400)
	svc := New(&stubSnapshots{snap: buildSnapshot(t, []index.SectionRecord{r1})}, zap.NewNop())

	stale := candidate.New("00000000deadbeef", 9.0, 0, 0, 0, 100, 0, candidate.Rationale{})
	set, err := svc.Load(context.Background(), []candidate.Score{stale, cand(r1, 1.0)}, 1000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Len() != 1 || !set.Contains(section.ComputeID("g.md", "current")) {
		t.Error("stale candidate handling broke loading")
	}
}

func TestLoadEmptyCandidates(t *testing.T) {
	svc := New(&stubSnapshots{snap: buildSnapshot(t, nil)}, zap.NewNop())
	set, err := svc.Load(context.Background(), nil, 1000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Len() != 0 || set.Budget() != 1000 {
		t.Errorf("unexpected set: len=%d budget=%d", set.Len(), set.Budget())
	}
}

func TestLoadIndexUnavailable(t *testing.T) {
	svc := New(&stubSnapshots{err: domain.ErrIndexUnavailable}, zap.NewNop())
	if _, err := svc.Load(context.Background(), nil, 1000); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("error = %v, want ErrIndexUnavailable", err)
	}
}

func TestLoadInvalidBudget(t *testing.T) {
	svc := New(&stubSnapshots{snap: buildSnapshot(t, nil)}, zap.NewNop())
	if _, err := svc.Load(context.Background(), nil, 0); err == nil {
		t.Error("expected error for zero budget")
	}
}

func TestHotSwapEvictsWorstRankedFirst(t *testing.T) {
	r1 := rec("g.md", "rank0", 400)
	r2 := rec("g.md", "rank1", 300)
	r3 := rec("g.md", "rank2", 200)
	incoming := rec("g.md", "incoming", 450)
	snap := buildSnapshot(t, []index.SectionRecord{r1, r2, r3, incoming})
	svc := New(&stubSnapshots{snap: snap}, zap.NewNop())

	set, _ := workingset.New(1000)
	for i, r := range []index.SectionRecord{r1, r2, r3} {
		sec, _ := snap.Section(section.ComputeID(r.FileID, r.Text))
		if err := set.Admit(sec, i); err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
	}

	// Incoming at rank 1: only the rank2 resident is evictable. Its 200
	// tokens plus the 100 remaining cannot cover 450, so the swap fails
	// before anything is released.
	err := svc.HotSwap(context.Background(), set, cand(incoming, 9.0), 1)
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("error = %v, want ErrBudgetExceeded for infeasible swap", err)
	}
	if set.Len() != 3 {
		t.Error("infeasible swap mutated the set")
	}

	// Incoming at rank 0: ranks 1 and 2 are evictable (500 tokens), plus
	// 100 remaining covers 450. Only rank2 then rank1 go, in that order,
	// and only as many as needed.
	err = svc.HotSwap(context.Background(), set, cand(incoming, 9.0), 0)
	if err != nil {
		t.Fatalf("HotSwap: %v", err)
	}
	if !set.Contains(section.ComputeID(incoming.FileID, incoming.Text)) {
		t.Fatal("incoming section not admitted")
	}
	if !set.Contains(section.ComputeID(r1.FileID, r1.Text)) {
		t.Error("rank0 resident must never be evicted for a rank0 incoming")
	}
	if set.Contains(section.ComputeID(r3.FileID, r3.Text)) {
		t.Error("worst-ranked resident should have been evicted first")
	}
	if set.Used() > set.Budget() {
		t.Errorf("budget invariant violated: used=%d budget=%d", set.Used(), set.Budget())
	}
}

func TestHotSwapStopsEvictingOnceItFits(t *testing.T) {
	r1 := rec("g.md", "rank0", 100)
	r2 := rec("g.md", "rank1", 100)
	incoming := rec("g.md", "incoming", 300)
	snap := buildSnapshot(t, []index.SectionRecord{r1, r2, incoming})
	svc := New(&stubSnapshots{snap: snap}, zap.NewNop())

	set, _ := workingset.New(500)
	for i, r := range []index.SectionRecord{r1, r2} {
		sec, _ := snap.Section(section.ComputeID(r.FileID, r.Text))
		if err := set.Admit(sec, i); err != nil {
			t.Fatalf("admit: %v", err)
		}
	}

	// 300 remaining already fits the incoming: nothing is evicted.
	if err := svc.HotSwap(context.Background(), set, cand(incoming, 9.0), 0); err != nil {
		t.Fatalf("HotSwap: %v", err)
	}
	if set.Len() != 3 {
		t.Errorf("len = %d, want 3 (no eviction needed)", set.Len())
	}
}

func TestHotSwapRejectsDuplicate(t *testing.T) {
	r1 := rec("g.md", "resident", 100)
	snap := buildSnapshot(t, []index.SectionRecord{r1})
	svc := New(&stubSnapshots{snap: snap}, zap.NewNop())

	set, _ := workingset.New(500)
	sec, _ := snap.Section(section.ComputeID(r1.FileID, r1.Text))
	if err := set.Admit(sec, 0); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if err := svc.HotSwap(context.Background(), set, cand(r1, 9.0), 0); !errors.Is(err, domain.ErrAlreadyAdmitted) {
		t.Errorf("error = %v, want ErrAlreadyAdmitted", err)
	}
}

func TestHotSwapRejectsSectionLargerThanBudget(t *testing.T) {
	incoming := rec("g.md", "giant", 5000)
	snap := buildSnapshot(t, []index.SectionRecord{incoming})
	svc := New(&stubSnapshots{snap: snap}, zap.NewNop())

	set, _ := workingset.New(1000)
	err := svc.HotSwap(context.Background(), set, cand(incoming, 9.0), 0)
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Errorf("error = %v, want ErrBudgetExceeded", err)
	}
}

func TestHotSwapUnknownSection(t *testing.T) {
	snap := buildSnapshot(t, nil)
	svc := New(&stubSnapshots{snap: snap}, zap.NewNop())
	set, _ := workingset.New(1000)

	ghost := candidate.New("00000000deadbeef", 9.0, 0, 0, 0, 100, 0, candidate.Rationale{})
	if err := svc.HotSwap(context.Background(), set, ghost, 0); !errors.Is(err, domain.ErrSectionNotFound) {
		t.Errorf("error = %v, want ErrSectionNotFound", err)
	}
}
