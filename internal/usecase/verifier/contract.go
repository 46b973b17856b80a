package verifier

import (
	"context"

	"github.com/groundline-ai/groundline/internal/domain/section"
)

// SemanticScorer is the optional external semantic-validation collaborator.
// When configured, its agreement score in [0,1] is blended into the
// composite confidence; the rule-based components never depend on it.
type SemanticScorer interface {
	Score(ctx context.Context, answer string, cited []section.Section) (float64, error)
}
