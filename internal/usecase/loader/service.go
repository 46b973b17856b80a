// Package loader admits ranked, policy-filtered candidates into a
// token-bounded working set. Admission is greedy in rank order with no
// reordering: packing efficiency is deliberately traded for determinism
// and citation-order stability.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain"
	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/workingset"
	"github.com/groundline-ai/groundline/internal/metrics"
)

// Service loads candidates into working sets.
type Service struct {
	snapshots SnapshotProvider
	logger    *zap.Logger
}

// New creates a loader.
func New(snapshots SnapshotProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{snapshots: snapshots, logger: logger}
}

// Load walks the candidates in rank order and admits each one that fits the
// remaining budget; candidates that do not fit are skipped, never truncated.
// When the single top-ranked candidate alone exceeds the entire budget the
// result is an empty set and a BudgetExceededError: the caller decides
// whether to sub-chunk or abort.
func (s *Service) Load(
	ctx context.Context, cands []candidate.Score, budgetTokens int,
) (*workingset.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Current()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	set, err := workingset.New(budgetTokens)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	for rank := range cands {
		sec, ok := snap.Section(cands[rank].SectionID())
		if !ok {
			// Stale candidate from a previous snapshot generation.
			continue
		}
		if admitErr := set.Admit(sec, rank); admitErr != nil {
			if rank == 0 && errors.Is(admitErr, domain.ErrBudgetExceeded) {
				metrics.BudgetExceededTotal.Inc()
				s.logger.Warn("top candidate exceeds budget",
					zap.String("section_id", sec.ID()),
					zap.Int("section_tokens", sec.TokenCount()),
					zap.Int("budget_tokens", budgetTokens),
				)
				return set, admitErr
			}
			// Does not fit: skip, keep walking in rank order.
			continue
		}
	}
	return set, nil
}

// HotSwap admits a higher-ranked section discovered mid-session, releasing
// the lowest-ranked residents (worst rank first) until it fits. It fails
// when the incoming candidate does not outrank any resident, or when even
// a full eviction of worse-ranked residents cannot free enough budget.
func (s *Service) HotSwap(
	ctx context.Context, set *workingset.Set, incoming candidate.Score, rank int,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.snapshots.Current()
	if err != nil {
		return fmt.Errorf("hot swap: %w", err)
	}
	sec, ok := snap.Section(incoming.SectionID())
	if !ok {
		return fmt.Errorf("hot swap: %w: %s", domain.ErrSectionNotFound, incoming.SectionID())
	}
	if set.Contains(sec.ID()) {
		return fmt.Errorf("hot swap: %w: %s", domain.ErrAlreadyAdmitted, sec.ID())
	}
	if sec.TokenCount() > set.Budget() {
		return domain.NewBudgetExceeded(sec.TokenCount(), set.Budget())
	}

	// Residents the incoming candidate is allowed to displace, worst rank first.
	var evictable []workingset.Entry
	for _, e := range set.Entries() {
		if e.Rank() > rank {
			evictable = append(evictable, e)
		}
	}
	sort.Slice(evictable, func(i, j int) bool { return evictable[i].Rank() > evictable[j].Rank() })

	freeable := set.Remaining()
	for _, e := range evictable {
		es := e.Section()
		freeable += es.TokenCount()
	}
	if freeable < sec.TokenCount() {
		return domain.NewBudgetExceeded(sec.TokenCount(), freeable)
	}

	for _, e := range evictable {
		if set.Remaining() >= sec.TokenCount() {
			break
		}
		es := e.Section()
		if relErr := set.Release(es.ID()); relErr != nil {
			return fmt.Errorf("hot swap release: %w", relErr)
		}
		s.logger.Debug("hot swap evicted resident",
			zap.String("evicted", es.ID()),
			zap.String("incoming", sec.ID()),
		)
	}

	return set.Admit(sec, rank)
}
