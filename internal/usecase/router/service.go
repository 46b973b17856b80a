package router

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/index"
)

// Default scoring constants, overridable via Options.
const (
	defaultAliasBonus  = 2.0
	defaultEntityBonus = 1.5
	defaultTopK        = 10
)

// Options tunes the router's scoring constants.
type Options struct {
	AliasBonus  float64
	EntityBonus float64
}

// Service ranks sections for a query. Pure and deterministic: no network
// calls, no randomness, no clock reads on the scoring path.
type Service struct {
	snapshots   SnapshotProvider
	rules       []Rule
	aliasBonus  float64
	entityBonus float64
}

// New creates a router with the given ordered disambiguation rules.
func New(snapshots SnapshotProvider, rules []Rule) *Service {
	return &Service{
		snapshots:   snapshots,
		rules:       rules,
		aliasBonus:  defaultAliasBonus,
		entityBonus: defaultEntityBonus,
	}
}

// WithOptions overrides the scoring constants.
func (s *Service) WithOptions(opts Options) *Service {
	if opts.AliasBonus > 0 {
		s.aliasBonus = opts.AliasBonus
	}
	if opts.EntityBonus > 0 {
		s.entityBonus = opts.EntityBonus
	}
	return s
}

// accumulator collects score components for one candidate section.
type accumulator struct {
	sec      section.Section
	lexical  float64
	alias    float64
	entity   float64
	adjust   float64
	terms    map[string]float64
	rules    []candidate.RuleHit
	excluded bool
}

// Route scores the query against the current snapshot and returns the top
// candidates in total order (score desc, effective date desc, ID asc).
// An empty index yields an empty result, not an error.
func (s *Service) Route(ctx context.Context, q *query.Query, topK int) ([]candidate.Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Current()
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	accs := make(map[string]*accumulator)
	get := func(id string) *accumulator {
		if acc, ok := accs[id]; ok {
			return acc
		}
		sec, ok := snap.Section(id)
		if !ok {
			return nil
		}
		acc := &accumulator{sec: sec, terms: make(map[string]float64)}
		accs[id] = acc
		return acc
	}

	s.scoreLexical(snap, q, get)
	s.scoreBonuses(snap, q, get)
	s.applyRules(q, accs)

	// Materialize, drop excluded, sort in the total ranking order.
	scores := make([]candidate.Score, 0, len(accs))
	for _, acc := range accs {
		if acc.excluded {
			continue
		}
		scores = append(scores, candidate.New(
			acc.sec.ID(),
			acc.lexical, acc.alias, acc.entity, acc.adjust,
			acc.sec.TokenCount(), acc.sec.EffectiveDate().Unix(),
			candidate.NewRationale(sortedTerms(acc.terms), acc.rules),
		))
	}
	sort.Slice(scores, func(i, j int) bool {
		return candidate.Less(&scores[i], &scores[j])
	})

	if len(scores) > topK {
		scores = scores[:topK]
	}
	return scores, nil
}

// scoreLexical sums TF-IDF weights per section over the query terms.
// idf = ln(1 + N/df); weight = queryCount * sectionTF * idf.
func (s *Service) scoreLexical(snap *index.Snapshot, q *query.Query, get func(string) *accumulator) {
	n := float64(snap.NumSections())
	for _, term := range q.Terms() {
		df := snap.DocFreq(term)
		if df == 0 {
			continue
		}
		idf := math.Log(1 + n/float64(df))
		qc := float64(q.Count(term))
		for _, p := range snap.Postings(term) {
			acc := get(p.SectionID)
			if acc == nil {
				continue
			}
			w := qc * float64(p.TermFreq) * idf
			acc.lexical += w
			acc.terms[term] += w
		}
	}
}

// scoreBonuses applies alias and entity bonuses. A query token that is a
// known alias earns the alias bonus for every section carrying the alias's
// canonical entity; a token that directly names an entity on the section
// earns the entity bonus.
func (s *Service) scoreBonuses(snap *index.Snapshot, q *query.Query, get func(string) *accumulator) {
	for _, term := range q.Terms() {
		if entity, ok := snap.AliasEntity(term); ok {
			for _, id := range snap.EntitySections(entity) {
				if acc := get(id); acc != nil {
					acc.alias += s.aliasBonus
				}
			}
		}
		for _, id := range snap.EntitySections(term) {
			acc := get(id)
			if acc != nil && acc.sec.HasEntity(term) {
				acc.entity += s.entityBonus
			}
		}
	}
}

// applyRules fires the disambiguation rules in registration order. An
// exclude is terminal: later rules no longer touch that candidate.
func (s *Service) applyRules(q *query.Query, accs map[string]*accumulator) {
	normalized := q.Normalized()
	for _, rule := range s.rules {
		if !rule.Triggers(normalized) {
			continue
		}
		for _, acc := range accs {
			if acc.excluded || !s.ruleMatches(rule, acc) {
				continue
			}
			if rule.action == ActionExclude {
				acc.excluded = true
				acc.rules = append(acc.rules, candidate.NewRuleHit(rule.name, 0, true))
				continue
			}
			delta := rule.adjustment()
			acc.adjust += delta
			acc.rules = append(acc.rules, candidate.NewRuleHit(rule.name, delta, false))
		}
	}
}

// ruleMatches reports whether the rule's target applies to the candidate.
func (s *Service) ruleMatches(rule Rule, acc *accumulator) bool {
	if rule.entity != "" {
		return acc.sec.HasEntity(rule.entity)
	}
	_, ok := acc.terms[rule.term]
	return ok
}

func sortedTerms(m map[string]float64) []candidate.TermContribution {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]candidate.TermContribution, 0, len(keys))
	for _, k := range keys {
		out = append(out, candidate.NewTermContribution(k, m[k]))
	}
	return out
}
