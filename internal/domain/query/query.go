package query

import (
	"sort"
	"strings"
	"unicode"

	"github.com/groundline-ai/groundline/internal/domain"
)

// Caller is the caller context attached to a request: the region and
// clearance flags used for policy filtering.
type Caller struct {
	region       string
	phiClearance bool
	piiClearance bool
}

// NewCaller creates a caller context.
func NewCaller(region string, phiClearance, piiClearance bool) Caller {
	return Caller{region: region, phiClearance: phiClearance, piiClearance: piiClearance}
}

// Region returns the caller's region code.
func (c Caller) Region() string { return c.region }

// PHIClearance reports whether the caller may see PHI sections.
func (c Caller) PHIClearance() bool { return c.phiClearance }

// PIIClearance reports whether the caller may see PII sections.
func (c Caller) PIIClearance() bool { return c.piiClearance }

// Query is a normalized query (immutable value object).
type Query struct {
	raw    string
	terms  []string       // sorted unique terms
	counts map[string]int // term -> occurrences
	caller Caller
}

// New normalizes raw text into a Query: case-fold, strip punctuation,
// split on whitespace. Returns ErrInvalidQuery when nothing survives
// normalization.
func New(raw string, caller Caller) (Query, error) {
	tokens := Normalize(raw)
	if len(tokens) == 0 {
		return Query{}, domain.ErrInvalidQuery
	}

	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	return Query{raw: raw, terms: terms, counts: counts, caller: caller}, nil
}

// Raw returns the original query text.
func (q *Query) Raw() string { return q.raw }

// Terms returns the sorted unique normalized terms.
func (q *Query) Terms() []string { return q.terms }

// Count returns how many times term occurs in the normalized query.
func (q *Query) Count(term string) int { return q.counts[term] }

// Caller returns the caller context.
func (q *Query) Caller() Caller { return q.caller }

// Normalized returns the normalized query joined by single spaces,
// used for pattern matching by disambiguation rules.
func (q *Query) Normalized() string {
	tokens := Normalize(q.raw)
	return strings.Join(tokens, " ")
}

// Normalize lower-cases text, replaces punctuation with spaces, and splits
// on whitespace. The same routine is used at index build time so query and
// section terms agree.
func Normalize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}
