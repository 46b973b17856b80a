// Package ask orchestrates one request pipeline: route, policy-filter,
// load, synthesize, verify. Each request is an independent pipeline
// instance; the index snapshot is the only shared state and is read-only.
package ask

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain"
	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/confidence"
	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/domain/workingset"
	"github.com/groundline-ai/groundline/internal/metrics"
	"github.com/groundline-ai/groundline/internal/usecase/policy"
)

// Result is the outcome of a full ask pipeline run.
type Result struct {
	Answer     string
	Candidates []candidate.Score
	Denials    []policy.Denial
	Loaded     *workingset.Set
	Confidence confidence.Profile
}

// Preview is the outcome of the pipeline up to (and excluding) synthesis.
// Allowed holds the policy-filtered candidates in rank order; entry ranks
// in Loaded are indices into it.
type Preview struct {
	Candidates []candidate.Score
	Allowed    []candidate.Score
	Denials    []policy.Denial
	Loaded     *workingset.Set
}

// Service runs request pipelines.
type Service struct {
	router       Router
	gate         PolicyGate
	loader       Loader
	verifier     Verifier
	generator    Generator
	topK         int
	budgetTokens int
	logger       *zap.Logger
}

// New creates the pipeline service.
func New(
	router Router, gate PolicyGate, loader Loader, verifier Verifier, generator Generator,
	topK, budgetTokens int, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		router: router, gate: gate, loader: loader,
		verifier: verifier, generator: generator,
		topK: topK, budgetTokens: budgetTokens,
		logger: logger,
	}
}

// Route runs only the ranking stage.
func (s *Service) Route(ctx context.Context, rawQuery string, caller query.Caller) ([]candidate.Score, error) {
	q, err := query.New(rawQuery, caller)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	cands, err := s.router.Route(ctx, &q, s.topK)
	metrics.RouteDuration.Observe(time.Since(start).Seconds())
	return cands, err
}

// Prepare runs route, filter, and load, returning the working set without
// invoking the synthesis provider.
func (s *Service) Prepare(ctx context.Context, rawQuery string, caller query.Caller) (Preview, error) {
	q, err := query.New(rawQuery, caller)
	if err != nil {
		return Preview{}, err
	}

	start := time.Now()
	cands, err := s.router.Route(ctx, &q, s.topK)
	metrics.RouteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Preview{}, fmt.Errorf("route: %w", err)
	}

	allowed, denials, err := s.gate.Filter(ctx, cands, caller)
	if err != nil {
		return Preview{}, fmt.Errorf("policy filter: %w", err)
	}

	set, err := s.loader.Load(ctx, allowed, s.budgetTokens)
	if err != nil {
		return Preview{Candidates: cands, Allowed: allowed, Denials: denials, Loaded: set}, err
	}

	return Preview{Candidates: cands, Allowed: allowed, Denials: denials, Loaded: set}, nil
}

// Ask runs the full pipeline. The synthesis call is the only suspending
// operation; its failure is wrapped in ErrProviderError and propagated
// without retries. Cancellation between stages discards the request's
// working set with no shared side effects.
func (s *Service) Ask(ctx context.Context, rawQuery string, caller query.Caller) (Result, error) {
	prep, err := s.Prepare(ctx, rawQuery, caller)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return s.Synthesize(ctx, rawQuery, prep)
}

// Synthesize runs the generation and verification tail over a prepared
// working set. Callers that adjusted the set after Prepare (releases,
// hot swaps) get an answer grounded in the set as it stands now.
func (s *Service) Synthesize(ctx context.Context, rawQuery string, prep Preview) (Result, error) {
	sections := loadedSections(prep.Loaded)
	prompt := buildPrompt(rawQuery, sections)

	answer, err := s.generator.Generate(ctx, prompt, sections)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrProviderError, err)
	}

	profile := s.verifier.Verify(ctx, answer, nil, prep.Loaded, prep.Candidates, true)

	s.logger.Info("pipeline complete",
		zap.Int("candidates", len(prep.Candidates)),
		zap.Int("denials", len(prep.Denials)),
		zap.Int("loaded", prep.Loaded.Len()),
		zap.Int("tokens_used", prep.Loaded.Used()),
		zap.Float64("confidence", profile.Composite()),
		zap.Bool("low_confidence", profile.LowConfidence()),
	)

	return Result{
		Answer:     answer,
		Candidates: prep.Candidates,
		Denials:    prep.Denials,
		Loaded:     prep.Loaded,
		Confidence: profile,
	}, nil
}

func loadedSections(set *workingset.Set) []section.Section {
	entries := set.Entries()
	out := make([]section.Section, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Section())
	}
	return out
}
