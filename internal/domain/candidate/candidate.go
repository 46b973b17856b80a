package candidate

// TermContribution records one query term's share of a lexical score.
type TermContribution struct {
	term   string
	weight float64
}

// NewTermContribution creates a term contribution.
func NewTermContribution(term string, weight float64) TermContribution {
	return TermContribution{term: term, weight: weight}
}

// Term returns the contributing term.
func (t TermContribution) Term() string { return t.term }

// Weight returns the term's TF-IDF weight.
func (t TermContribution) Weight() float64 { return t.weight }

// RuleHit records a disambiguation rule that fired for a candidate.
type RuleHit struct {
	rule       string
	adjustment float64
	excluded   bool
}

// NewRuleHit creates a rule hit.
func NewRuleHit(rule string, adjustment float64, excluded bool) RuleHit {
	return RuleHit{rule: rule, adjustment: adjustment, excluded: excluded}
}

// Rule returns the rule name.
func (r RuleHit) Rule() string { return r.rule }

// Adjustment returns the score adjustment the rule applied.
func (r RuleHit) Adjustment() float64 { return r.adjustment }

// Excluded reports whether the rule hard-excluded the candidate.
func (r RuleHit) Excluded() bool { return r.excluded }

// Rationale explains how a candidate's score came about, for audit trails.
type Rationale struct {
	terms []TermContribution
	rules []RuleHit
}

// NewRationale creates a scoring rationale.
func NewRationale(terms []TermContribution, rules []RuleHit) Rationale {
	return Rationale{terms: terms, rules: rules}
}

// Terms returns the contributing terms in deterministic (sorted) order.
func (r Rationale) Terms() []TermContribution { return r.terms }

// Rules returns the fired rules in registration order.
func (r Rationale) Rules() []RuleHit { return r.rules }

// Score is a ranked candidate section with its score breakdown.
type Score struct {
	sectionID     string
	lexicalScore  float64
	aliasBonus    float64
	entityBonus   float64
	disambAdjust  float64
	finalScore    float64
	tokenCount    int
	effectiveUnix int64 // owning document effective date, for tie-breaks
	rationale     Rationale
}

// New creates a candidate score. finalScore is derived, not supplied.
func New(
	sectionID string,
	lexicalScore, aliasBonus, entityBonus, disambAdjust float64,
	tokenCount int, effectiveUnix int64, rationale Rationale,
) Score {
	return Score{
		sectionID:     sectionID,
		lexicalScore:  lexicalScore,
		aliasBonus:    aliasBonus,
		entityBonus:   entityBonus,
		disambAdjust:  disambAdjust,
		finalScore:    lexicalScore + aliasBonus + entityBonus + disambAdjust,
		tokenCount:    tokenCount,
		effectiveUnix: effectiveUnix,
		rationale:     rationale,
	}
}

// SectionID returns the candidate section identifier.
func (s *Score) SectionID() string { return s.sectionID }

// LexicalScore returns the TF-IDF component.
func (s *Score) LexicalScore() float64 { return s.lexicalScore }

// AliasBonus returns the alias-match component.
func (s *Score) AliasBonus() float64 { return s.aliasBonus }

// EntityBonus returns the entity-overlap component.
func (s *Score) EntityBonus() float64 { return s.entityBonus }

// DisambiguationAdjustment returns the net rule adjustment.
func (s *Score) DisambiguationAdjustment() float64 { return s.disambAdjust }

// FinalScore returns the composite ranking score.
func (s *Score) FinalScore() float64 { return s.finalScore }

// TokenCount returns the candidate section's token count.
func (s *Score) TokenCount() int { return s.tokenCount }

// EffectiveUnix returns the owning document's effective date (unix seconds).
func (s *Score) EffectiveUnix() int64 { return s.effectiveUnix }

// Rationale returns the scoring rationale.
func (s *Score) Rationale() Rationale { return s.rationale }

// Less imposes the total ranking order: final score descending, then
// effective date descending, then section ID ascending. The order is total
// and stable so repeated routing of the same query is byte-identical.
func Less(a, b *Score) bool {
	if a.finalScore != b.finalScore {
		return a.finalScore > b.finalScore
	}
	if a.effectiveUnix != b.effectiveUnix {
		return a.effectiveUnix > b.effectiveUnix
	}
	return a.sectionID < b.sectionID
}
