package chi

import (
	"time"

	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/confidence"
	"github.com/groundline-ai/groundline/internal/domain/workingset"
	"github.com/groundline-ai/groundline/internal/index"
	"github.com/groundline-ai/groundline/internal/usecase/policy"
)

// Error codes returned in the error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeInvalidQuery     = "invalid_query"
	CodeIndexUnavailable = "index_unavailable"
	CodeBudgetExceeded   = "budget_exceeded"
	CodeProviderError    = "provider_error"
	CodeInternal         = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// RouteRequest is the body of POST /v1/route.
type RouteRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// CorpusRequest is the body of POST /v1/corpus.
type CorpusRequest struct {
	Records []index.SectionRecord `json:"records"`
}

// TermDTO is one contributing term in a candidate rationale.
type TermDTO struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// RuleDTO is one fired disambiguation rule in a candidate rationale.
type RuleDTO struct {
	Rule       string  `json:"rule"`
	Adjustment float64 `json:"adjustment"`
	Excluded   bool    `json:"excluded,omitempty"`
}

// CandidateDTO is one ranked candidate with its score breakdown.
type CandidateDTO struct {
	SectionID                string    `json:"section_id"`
	LexicalScore             float64   `json:"lexical_score"`
	AliasBonus               float64   `json:"alias_bonus"`
	EntityBonus              float64   `json:"entity_bonus"`
	DisambiguationAdjustment float64   `json:"disambiguation_adjustment"`
	FinalScore               float64   `json:"final_score"`
	TokenCount               int       `json:"token_count"`
	Terms                    []TermDTO `json:"terms,omitempty"`
	Rules                    []RuleDTO `json:"rules,omitempty"`
}

// DenialDTO is one policy denial: identifier and reason only.
type DenialDTO struct {
	SectionID string `json:"section_id"`
	Reason    string `json:"reason"`
}

// LoadedSectionDTO is one admitted section in a working set view.
type LoadedSectionDTO struct {
	SectionID string `json:"section_id"`
	Rank      int    `json:"rank"`
	Tokens    int    `json:"tokens"`
}

// LoadedDTO is a working set snapshot view.
type LoadedDTO struct {
	BudgetTokens int                `json:"budget_tokens"`
	UsedTokens   int                `json:"used_tokens"`
	Remaining    int                `json:"remaining_tokens"`
	Sections     []LoadedSectionDTO `json:"sections"`
}

// ConfidenceDTO is a confidence profile view.
type ConfidenceDTO struct {
	Composite      float64            `json:"composite"`
	Factors        map[string]float64 `json:"factors"`
	GroundingRatio float64            `json:"grounding_ratio"`
	Grounded       []string           `json:"grounded_citations,omitempty"`
	Orphans        []string           `json:"orphan_citations,omitempty"`
	LowConfidence  bool               `json:"low_confidence"`
}

// AskResponse is the body of a successful POST /v1/ask.
type AskResponse struct {
	Answer     string         `json:"answer"`
	Confidence ConfidenceDTO  `json:"confidence"`
	Candidates []CandidateDTO `json:"candidates"`
	Denials    []DenialDTO    `json:"denials,omitempty"`
	Loaded     LoadedDTO      `json:"loaded"`
}

// RouteResponse is the body of a successful POST /v1/route.
type RouteResponse struct {
	Candidates []CandidateDTO `json:"candidates"`
}

// SnapshotResponse describes the published index snapshot.
type SnapshotResponse struct {
	Version  string    `json:"version"`
	Sections int       `json:"sections"`
	Terms    int       `json:"terms"`
	BuiltAt  time.Time `json:"built_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func toCandidateDTO(c *candidate.Score) CandidateDTO {
	dto := CandidateDTO{
		SectionID:                c.SectionID(),
		LexicalScore:             c.LexicalScore(),
		AliasBonus:               c.AliasBonus(),
		EntityBonus:              c.EntityBonus(),
		DisambiguationAdjustment: c.DisambiguationAdjustment(),
		FinalScore:               c.FinalScore(),
		TokenCount:               c.TokenCount(),
	}
	for _, t := range c.Rationale().Terms() {
		dto.Terms = append(dto.Terms, TermDTO{Term: t.Term(), Weight: t.Weight()})
	}
	for _, r := range c.Rationale().Rules() {
		dto.Rules = append(dto.Rules, RuleDTO{Rule: r.Rule(), Adjustment: r.Adjustment(), Excluded: r.Excluded()})
	}
	return dto
}

func toCandidateDTOs(cands []candidate.Score) []CandidateDTO {
	out := make([]CandidateDTO, 0, len(cands))
	for i := range cands {
		out = append(out, toCandidateDTO(&cands[i]))
	}
	return out
}

func toDenialDTOs(denials []policy.Denial) []DenialDTO {
	out := make([]DenialDTO, 0, len(denials))
	for _, d := range denials {
		out = append(out, DenialDTO{SectionID: d.SectionID, Reason: string(d.Reason)})
	}
	return out
}

func toLoadedDTO(set *workingset.Set) LoadedDTO {
	dto := LoadedDTO{
		BudgetTokens: set.Budget(),
		UsedTokens:   set.Used(),
		Remaining:    set.Remaining(),
	}
	for _, e := range set.Entries() {
		es := e.Section()
		dto.Sections = append(dto.Sections, LoadedSectionDTO{
			SectionID: es.ID(),
			Rank:      e.Rank(),
			Tokens:    es.TokenCount(),
		})
	}
	return dto
}

func toConfidenceDTO(p *confidence.Profile) ConfidenceDTO {
	factors := make(map[string]float64)
	for k, v := range p.Factors() {
		factors[string(k)] = v
	}
	return ConfidenceDTO{
		Composite:      p.Composite(),
		Factors:        factors,
		GroundingRatio: p.GroundingRatio(),
		Grounded:       p.GroundedCitations(),
		Orphans:        p.OrphanCitations(),
		LowConfidence:  p.LowConfidence(),
	}
}
