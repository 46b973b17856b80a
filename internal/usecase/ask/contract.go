package ask

import (
	"context"

	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/confidence"
	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/domain/workingset"
	"github.com/groundline-ai/groundline/internal/usecase/policy"
)

// Router ranks a query against the index.
type Router interface {
	Route(ctx context.Context, q *query.Query, topK int) ([]candidate.Score, error)
}

// PolicyGate filters ranked candidates against a caller context.
type PolicyGate interface {
	Filter(ctx context.Context, cands []candidate.Score, caller query.Caller) ([]candidate.Score, []policy.Denial, error)
}

// Loader admits filtered candidates into a token-bounded working set.
type Loader interface {
	Load(ctx context.Context, cands []candidate.Score, budgetTokens int) (*workingset.Set, error)
}

// Verifier checks citations and computes the confidence profile.
type Verifier interface {
	Verify(
		ctx context.Context, answer string, citations []string,
		set *workingset.Set, routed []candidate.Score, policyPass bool,
	) confidence.Profile
}

// Generator is the external answer-synthesis provider: one opaque
// generate(prompt, context) call per request. The core performs no
// retries; retry policy belongs to the caller.
type Generator interface {
	Generate(ctx context.Context, prompt string, sections []section.Section) (string, error)
}
