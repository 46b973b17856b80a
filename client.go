// Package groundline is the in-process entry point to the retrieval
// pipeline: routing, policy gating, budgeted loading, and answer
// verification over an immutable section index. The HTTP service in
// cmd/groundline wraps the same internals; this package is for embedding
// the pipeline directly.
package groundline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain"
	"github.com/groundline-ai/groundline/internal/domain/candidate"
	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/index"
	"github.com/groundline-ai/groundline/internal/lexicon"
	askuc "github.com/groundline-ai/groundline/internal/usecase/ask"
	loaderuc "github.com/groundline-ai/groundline/internal/usecase/loader"
	policyuc "github.com/groundline-ai/groundline/internal/usecase/policy"
	routeruc "github.com/groundline-ai/groundline/internal/usecase/router"
	verifieruc "github.com/groundline-ai/groundline/internal/usecase/verifier"
)

// Pipeline sentinels, re-exported for errors.Is checks by embedders.
var (
	ErrInvalidQuery     = domain.ErrInvalidQuery
	ErrIndexUnavailable = domain.ErrIndexUnavailable
	ErrBudgetExceeded   = domain.ErrBudgetExceeded
	ErrProviderError    = domain.ErrProviderError
	ErrSectionNotFound  = domain.ErrSectionNotFound
	ErrAlreadyAdmitted  = domain.ErrAlreadyAdmitted
	ErrNotAdmitted      = domain.ErrNotAdmitted
)

// Section is one ingested section to publish into the index.
type Section struct {
	FileID        string
	Text          string
	TokenCount    int
	Aliases       []string
	Entities      []string
	PHI           bool
	PII           bool
	Residency     string
	EffectiveDate time.Time
	IsArchived    bool
}

// ContextSection is one loaded section handed to the generator.
type ContextSection struct {
	ID         string
	Text       string
	TokenCount int
}

// Generator synthesizes an answer from a prompt and its context sections.
// One call per request; the pipeline performs no retries.
type Generator interface {
	Generate(ctx context.Context, prompt string, sections []ContextSection) (string, error)
}

// Caller is the caller context used for policy filtering.
type Caller struct {
	Region       string
	PHIClearance bool
	PIIClearance bool
}

// Candidate is one ranked section.
type Candidate struct {
	SectionID  string
	FinalScore float64
	TokenCount int
}

// Denial is one policy denial: identifier and reason only.
type Denial struct {
	SectionID string
	Reason    string
}

// SnapshotInfo describes a published index snapshot.
type SnapshotInfo struct {
	Version  string
	Sections int
	Terms    int
}

// Answer is the outcome of a full Ask run.
type Answer struct {
	Text              string
	Confidence        float64
	LowConfidence     bool
	GroundedCitations []string
	OrphanCitations   []string
	Candidates        []Candidate
	Denials           []Denial
	TokensUsed        int
	TokensBudget      int
}

// Client runs the retrieval pipeline in process.
type Client struct {
	holder *index.Holder
	build  *index.Builder
	ask    *askuc.Service
	loader *loaderuc.Service
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		domain:       "generic",
		topK:         10,
		budgetTokens: 4000,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	lex, err := lexicon.ForDomain(cfg.domain, cfg.aliases, cfg.entities)
	if err != nil {
		return nil, fmt.Errorf("groundline: %w", err)
	}

	rules := make([]routeruc.Rule, 0, len(cfg.rules))
	for _, spec := range cfg.rules {
		rule, err := routeruc.NewRule(
			spec.Name, spec.Trigger, spec.Entity, spec.Term,
			routeruc.Action(spec.Action), spec.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("groundline: %w", err)
		}
		rules = append(rules, rule)
	}

	holder := index.NewHolder()
	router := routeruc.New(holder, rules)
	if cfg.aliasBonus > 0 || cfg.entityBonus > 0 {
		router = router.WithOptions(routeruc.Options{
			AliasBonus:  cfg.aliasBonus,
			EntityBonus: cfg.entityBonus,
		})
	}

	var gen askuc.Generator = noopGenerator{}
	if cfg.generator != nil {
		gen = &generatorAdapter{inner: cfg.generator}
	}

	loaderSvc := loaderuc.New(holder, cfg.logger)
	askSvc := askuc.New(
		router,
		policyuc.New(holder, nil, cfg.logger),
		loaderSvc,
		verifieruc.New(nil, cfg.logger),
		gen,
		cfg.topK, cfg.budgetTokens,
		cfg.logger,
	)

	return &Client{
		holder: holder,
		build:  index.NewBuilder(lex),
		ask:    askSvc,
		loader: loaderSvc,
	}, nil
}

// Publish builds an index snapshot from sections and swaps it in
// atomically. Archived sections are skipped.
func (c *Client) Publish(_ context.Context, sections []Section) (SnapshotInfo, error) {
	records := make([]index.SectionRecord, 0, len(sections))
	for _, s := range sections {
		records = append(records, index.SectionRecord{
			FileID:        s.FileID,
			Text:          s.Text,
			TokenCount:    s.TokenCount,
			Aliases:       s.Aliases,
			Entities:      s.Entities,
			PHI:           s.PHI,
			PII:           s.PII,
			Residency:     s.Residency,
			EffectiveDate: s.EffectiveDate,
			IsArchived:    s.IsArchived,
		})
	}
	snap, err := c.build.Build(records)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("groundline: %w", err)
	}
	c.holder.Publish(snap)
	return snapshotInfo(snap), nil
}

// Snapshot returns the current published snapshot.
func (c *Client) Snapshot() (SnapshotInfo, error) {
	snap, err := c.holder.Current()
	if err != nil {
		return SnapshotInfo{}, err
	}
	return snapshotInfo(snap), nil
}

// Route ranks sections for the query without loading or synthesis.
func (c *Client) Route(ctx context.Context, rawQuery string, caller Caller) ([]Candidate, error) {
	cands, err := c.ask.Route(ctx, rawQuery, toCaller(caller))
	if err != nil {
		return nil, err
	}
	return toCandidates(cands), nil
}

// Ask runs the full pipeline: route, filter, load, synthesize, verify.
func (c *Client) Ask(ctx context.Context, rawQuery string, caller Caller) (Answer, error) {
	res, err := c.ask.Ask(ctx, rawQuery, toCaller(caller))
	if err != nil {
		return Answer{}, err
	}
	return toAnswer(res), nil
}

// Preparation is a prepared working set the caller can adjust before
// synthesis. It is bound to one query and is not safe for concurrent use.
type Preparation struct {
	client  *Client
	query   string
	preview askuc.Preview
}

// Prepare runs route, filter, and load, then hands back the working set
// for inspection and adjustment. Release evicted sections to make room,
// HotSwap in a skipped candidate, then Synthesize for the answer.
func (c *Client) Prepare(ctx context.Context, rawQuery string, caller Caller) (*Preparation, error) {
	prep, err := c.ask.Prepare(ctx, rawQuery, toCaller(caller))
	if err != nil {
		return nil, err
	}
	return &Preparation{client: c, query: rawQuery, preview: prep}, nil
}

// Sections returns the currently admitted sections in admission order.
func (p *Preparation) Sections() []ContextSection {
	entries := p.preview.Loaded.Entries()
	out := make([]ContextSection, 0, len(entries))
	for _, e := range entries {
		es := e.Section()
		out = append(out, ContextSection{
			ID:         es.ID(),
			Text:       es.Text(),
			TokenCount: es.TokenCount(),
		})
	}
	return out
}

// Candidates returns the full ranked candidate list, including sections
// that were denied or skipped at load time.
func (p *Preparation) Candidates() []Candidate {
	return toCandidates(p.preview.Candidates)
}

// Denials returns the policy denials for this query.
func (p *Preparation) Denials() []Denial {
	return toDenials(p.preview.Denials)
}

// TokensUsed returns the tokens consumed by admitted sections.
func (p *Preparation) TokensUsed() int { return p.preview.Loaded.Used() }

// TokensBudget returns the working set's token budget.
func (p *Preparation) TokensBudget() int { return p.preview.Loaded.Budget() }

// Release evicts an admitted section, freeing its tokens.
func (p *Preparation) Release(sectionID string) error {
	return p.preview.Loaded.Release(sectionID)
}

// HotSwap admits a ranked candidate that is not currently in the working
// set, evicting lower-ranked residents as needed to fit it. The section
// must appear in the query's allowed ranking.
func (p *Preparation) HotSwap(ctx context.Context, sectionID string) error {
	for rank := range p.preview.Allowed {
		if p.preview.Allowed[rank].SectionID() == sectionID {
			return p.client.loader.HotSwap(ctx, p.preview.Loaded, p.preview.Allowed[rank], rank)
		}
	}
	return fmt.Errorf("groundline: %w: %s", ErrSectionNotFound, sectionID)
}

// Synthesize generates and verifies the answer over the working set as it
// stands now.
func (p *Preparation) Synthesize(ctx context.Context) (Answer, error) {
	res, err := p.client.ask.Synthesize(ctx, p.query, p.preview)
	if err != nil {
		return Answer{}, err
	}
	return toAnswer(res), nil
}

// SectionID derives the content-addressed identifier a section will get
// when published. Useful for asserting citations against known content.
func SectionID(fileID, text string) string {
	return section.ComputeID(fileID, text)
}

func snapshotInfo(snap *index.Snapshot) SnapshotInfo {
	return SnapshotInfo{
		Version:  snap.Version(),
		Sections: snap.NumSections(),
		Terms:    snap.NumTerms(),
	}
}

func toCaller(c Caller) query.Caller {
	return query.NewCaller(c.Region, c.PHIClearance, c.PIIClearance)
}

func toCandidates(cands []candidate.Score) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for i := range cands {
		out = append(out, Candidate{
			SectionID:  cands[i].SectionID(),
			FinalScore: cands[i].FinalScore(),
			TokenCount: cands[i].TokenCount(),
		})
	}
	return out
}

func toDenials(denials []policyuc.Denial) []Denial {
	out := make([]Denial, 0, len(denials))
	for _, d := range denials {
		out = append(out, Denial{SectionID: d.SectionID, Reason: string(d.Reason)})
	}
	return out
}

func toAnswer(res askuc.Result) Answer {
	return Answer{
		Text:              res.Answer,
		Confidence:        res.Confidence.Composite(),
		LowConfidence:     res.Confidence.LowConfidence(),
		GroundedCitations: res.Confidence.GroundedCitations(),
		OrphanCitations:   res.Confidence.OrphanCitations(),
		Candidates:        toCandidates(res.Candidates),
		Denials:           toDenials(res.Denials),
		TokensUsed:        res.Loaded.Used(),
		TokensBudget:      res.Loaded.Budget(),
	}
}

// generatorAdapter wraps the public Generator to satisfy the internal one.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string, secs []section.Section) (string, error) {
	ctxSecs := make([]ContextSection, 0, len(secs))
	for i := range secs {
		ctxSecs = append(ctxSecs, ContextSection{
			ID:         secs[i].ID(),
			Text:       secs[i].Text(),
			TokenCount: secs[i].TokenCount(),
		})
	}
	return a.inner.Generate(ctx, prompt, ctxSecs)
}

// noopGenerator fails Ask when no provider is configured.
type noopGenerator struct{}

func (noopGenerator) Generate(_ context.Context, _ string, _ []section.Section) (string, error) {
	return "", errors.New("groundline: generator not configured (use WithGenerator)")
}
