package confidence

// Factor names the components of a composite confidence score.
type Factor string

// Factor constants.
const (
	FactorRouter    Factor = "router"
	FactorGrounding Factor = "grounding"
	FactorPolicy    Factor = "policy"
	FactorSemantic  Factor = "semantic"
)

// Profile is the structured breakdown of trust signals behind an answer.
type Profile struct {
	composite     float64
	factors       map[Factor]float64
	groundedCites []string
	orphanCites   []string
	lowConfidence bool
}

// New creates a confidence profile. composite is clamped to [0,1].
func New(
	composite float64, factors map[Factor]float64,
	grounded, orphans []string, lowConfidence bool,
) Profile {
	if composite < 0 {
		composite = 0
	}
	if composite > 1 {
		composite = 1
	}
	return Profile{
		composite:     composite,
		factors:       cloneFactors(factors),
		groundedCites: grounded,
		orphanCites:   orphans,
		lowConfidence: lowConfidence,
	}
}

// Composite returns the composite confidence score in [0,1].
func (p *Profile) Composite() float64 { return p.composite }

// Factor returns a named component score.
func (p *Profile) Factor(f Factor) (float64, bool) {
	v, ok := p.factors[f]
	return v, ok
}

// Factors returns the full factor breakdown.
func (p *Profile) Factors() map[Factor]float64 { return cloneFactors(p.factors) }

// GroundedCitations returns the citations that resolved to loaded sections.
func (p *Profile) GroundedCitations() []string { return p.groundedCites }

// OrphanCitations returns the citations that resolved to nothing.
func (p *Profile) OrphanCitations() []string { return p.orphanCites }

// GroundingRatio returns the fraction of citations that resolved.
func (p *Profile) GroundingRatio() float64 {
	total := len(p.groundedCites) + len(p.orphanCites)
	if total == 0 {
		return 0
	}
	return float64(len(p.groundedCites)) / float64(total)
}

// LowConfidence reports whether the answer was flagged below the
// confidence floor (at least one ungrounded citation, or no citations).
func (p *Profile) LowConfidence() bool { return p.lowConfidence }

func cloneFactors(m map[Factor]float64) map[Factor]float64 {
	if m == nil {
		return nil
	}
	c := make(map[Factor]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
