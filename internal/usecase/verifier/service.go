// Package verifier checks that a synthesized answer's citations resolve to
// sections that were actually loaded, and computes the composite confidence
// behind the answer. The rule-based components are computable offline; the
// semantic component is an optional additive signal.
package verifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/confidence"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/domain/workingset"
	"github.com/groundline-ai/groundline/internal/metrics"
)

// lowConfidenceCeiling caps the composite score of any answer with at least
// one ungrounded citation (or none at all). Such answers are flagged, not
// rejected: the caller chooses whether to surface them with a warning.
const lowConfidenceCeiling = 0.49

// Weights are the composite confidence weights. They sum to 1 in both
// configurations (with and without the semantic component).
type Weights struct {
	Router    float64
	Grounding float64
	Policy    float64
	Semantic  float64
}

// DefaultWeights is used when no semantic scorer is configured.
var DefaultWeights = Weights{Router: 0.40, Grounding: 0.40, Policy: 0.20}

// SemanticWeights is used when a semantic scorer is configured.
var SemanticWeights = Weights{Router: 0.30, Grounding: 0.35, Policy: 0.15, Semantic: 0.20}

// Service verifies answers against their loaded working set.
type Service struct {
	semantic SemanticScorer
	weights  Weights
	logger   *zap.Logger
}

// New creates a verifier. semantic may be nil.
func New(semantic SemanticScorer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := DefaultWeights
	if semantic != nil {
		w = SemanticWeights
	}
	return &Service{semantic: semantic, weights: w, logger: logger}
}

// WithWeights overrides the composite weights.
func (s *Service) WithWeights(w Weights) *Service {
	s.weights = w
	return s
}

// Verify checks every citation against the working set and computes the
// confidence profile. citations wins when non-empty; otherwise citations
// are extracted from the answer text. policyPass records whether the
// loaded material passed the policy gate.
func (s *Service) Verify(
	ctx context.Context,
	answer string, citations []string,
	set *workingset.Set, routed []candidate.Score,
	policyPass bool,
) confidence.Profile {
	if len(citations) == 0 {
		citations = ExtractCitations(answer)
	}

	var grounded, orphans []string
	var citedSections []section.Section
	for _, id := range citations {
		if e, ok := set.Get(id); ok {
			grounded = append(grounded, id)
			citedSections = append(citedSections, e.Section())
		} else {
			orphans = append(orphans, id)
		}
	}

	groundingRatio := 0.0
	if len(citations) > 0 {
		groundingRatio = float64(len(grounded)) / float64(len(citations))
	}
	routerComponent := s.routerComponent(grounded, routed)
	policyComponent := 0.0
	if policyPass {
		policyComponent = 1.0
	}

	factors := map[confidence.Factor]float64{
		confidence.FactorRouter:    routerComponent,
		confidence.FactorGrounding: groundingRatio,
		confidence.FactorPolicy:    policyComponent,
	}

	composite := s.weights.Router*routerComponent +
		s.weights.Grounding*groundingRatio +
		s.weights.Policy*policyComponent

	if s.semantic != nil {
		if sem, err := s.semantic.Score(ctx, answer, citedSections); err != nil {
			// Optional signal: its failure never blocks a confidence value.
			s.logger.Warn("semantic scorer failed", zap.Error(err))
		} else {
			factors[confidence.FactorSemantic] = sem
			composite += s.weights.Semantic * sem
		}
	}

	low := len(orphans) > 0 || len(citations) == 0
	if low && composite > lowConfidenceCeiling {
		composite = lowConfidenceCeiling
	}

	metrics.AnswerConfidence.Observe(composite)
	if len(orphans) > 0 {
		s.logger.Info("answer has ungrounded citations",
			zap.Int("orphans", len(orphans)),
			zap.Int("grounded", len(grounded)),
		)
	}

	return confidence.New(composite, factors, grounded, orphans, low)
}

// routerComponent is the mean router score of the grounded citations,
// normalized by the best routed score. No routed candidates or a
// non-positive best score yields 0.
func (s *Service) routerComponent(grounded []string, routed []candidate.Score) float64 {
	if len(grounded) == 0 || len(routed) == 0 {
		return 0
	}
	best := routed[0].FinalScore()
	for i := range routed {
		if routed[i].FinalScore() > best {
			best = routed[i].FinalScore()
		}
	}
	if best <= 0 {
		return 0
	}

	byID := make(map[string]float64, len(routed))
	for i := range routed {
		byID[routed[i].SectionID()] = routed[i].FinalScore()
	}

	sum := 0.0
	for _, id := range grounded {
		sum += byID[id] / best
	}
	return sum / float64(len(grounded))
}
