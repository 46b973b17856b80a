package sdk

import "time"

// Caller is the caller context sent as request headers. The server's
// policy gate filters sections against it.
type Caller struct {
	Region       string
	PHIClearance bool
	PIIClearance bool
}

// SectionRecord is one section to publish into the index.
type SectionRecord struct {
	FileID        string    `json:"file_id"`
	FileTitle     string    `json:"file_title"`
	FileVersion   int       `json:"file_version"`
	SourceType    string    `json:"source_type"`
	EffectiveDate time.Time `json:"effective_date"`
	IsArchived    bool      `json:"is_archived"`

	Text       string   `json:"text"`
	TokenCount int      `json:"token_count"`
	Aliases    []string `json:"aliases,omitempty"`
	Entities   []string `json:"entities,omitempty"`

	PHI       bool   `json:"phi"`
	PII       bool   `json:"pii"`
	Residency string `json:"residency,omitempty"`
}

// Term is one contributing term in a candidate rationale.
type Term struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Rule is one fired disambiguation rule in a candidate rationale.
type Rule struct {
	Rule       string  `json:"rule"`
	Adjustment float64 `json:"adjustment"`
	Excluded   bool    `json:"excluded,omitempty"`
}

// Candidate is one ranked section with its score breakdown.
type Candidate struct {
	SectionID                string  `json:"section_id"`
	LexicalScore             float64 `json:"lexical_score"`
	AliasBonus               float64 `json:"alias_bonus"`
	EntityBonus              float64 `json:"entity_bonus"`
	DisambiguationAdjustment float64 `json:"disambiguation_adjustment"`
	FinalScore               float64 `json:"final_score"`
	TokenCount               int     `json:"token_count"`
	Terms                    []Term  `json:"terms,omitempty"`
	Rules                    []Rule  `json:"rules,omitempty"`
}

// Denial is one policy denial: identifier and reason only.
type Denial struct {
	SectionID string `json:"section_id"`
	Reason    string `json:"reason"`
}

// LoadedSection is one admitted section in a working set view.
type LoadedSection struct {
	SectionID string `json:"section_id"`
	Rank      int    `json:"rank"`
	Tokens    int    `json:"tokens"`
}

// Loaded is a working set snapshot view.
type Loaded struct {
	BudgetTokens int             `json:"budget_tokens"`
	UsedTokens   int             `json:"used_tokens"`
	Remaining    int             `json:"remaining_tokens"`
	Sections     []LoadedSection `json:"sections"`
}

// Confidence is a confidence profile view.
type Confidence struct {
	Composite      float64            `json:"composite"`
	Factors        map[string]float64 `json:"factors"`
	GroundingRatio float64            `json:"grounding_ratio"`
	Grounded       []string           `json:"grounded_citations,omitempty"`
	Orphans        []string           `json:"orphan_citations,omitempty"`
	LowConfidence  bool               `json:"low_confidence"`
}

// AskResult is the outcome of a full ask run.
type AskResult struct {
	Answer     string      `json:"answer"`
	Confidence Confidence  `json:"confidence"`
	Candidates []Candidate `json:"candidates"`
	Denials    []Denial    `json:"denials,omitempty"`
	Loaded     Loaded      `json:"loaded"`
}

// Snapshot describes a published index snapshot.
type Snapshot struct {
	Version  string    `json:"version"`
	Sections int       `json:"sections"`
	Terms    int       `json:"terms"`
	BuiltAt  time.Time `json:"built_at"`
}

// Health is the server health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type askRequest struct {
	Query string `json:"query"`
}

type routeRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type routeResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type corpusRequest struct {
	Records []SectionRecord `json:"records"`
}
