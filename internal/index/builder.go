package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/lexicon"
)

// Builder turns validated section records into an immutable Snapshot.
// The build is idempotent: identical input yields bit-identical postings,
// section IDs, and snapshot version, which keeps external citations stable
// across rebuilds and deployments.
type Builder struct {
	lex lexicon.Adapter
}

// NewBuilder creates an index builder with the given lexicon adapter.
func NewBuilder(lex lexicon.Adapter) *Builder {
	return &Builder{lex: lex}
}

// Build constructs a Snapshot from section records. Records from archived
// documents are skipped; they remain citable from older snapshots but are
// never routed to. Duplicate (fileID, text) pairs collapse to one section.
func (b *Builder) Build(records []SectionRecord) (*Snapshot, error) {
	snap := &Snapshot{
		builtAt:  time.Now().UTC(),
		sections: make(map[string]section.Section),
		postings: make(map[string][]Posting),
		df:       make(map[string]int),
		aliases:  make(map[string]string),
		entities: make(map[string][]string),
	}

	for i, rec := range records {
		if rec.IsArchived {
			continue
		}

		sec, err := section.New(
			rec.FileID, rec.Text, rec.TokenCount,
			rec.Aliases, rec.Entities,
			section.NewSecurity(rec.PHI, rec.PII, rec.Residency),
			rec.EffectiveDate,
		)
		if err != nil {
			return nil, fmt.Errorf("record %d (file %q): %w", i, rec.FileID, err)
		}
		if _, ok := snap.sections[sec.ID()]; ok {
			continue
		}
		snap.sections[sec.ID()] = sec

		b.indexTerms(snap, sec)
		b.indexLookups(snap, sec)
	}

	for term := range snap.postings {
		sort.Slice(snap.postings[term], func(i, j int) bool {
			return snap.postings[term][i].SectionID < snap.postings[term][j].SectionID
		})
		snap.df[term] = len(snap.postings[term])
	}
	for entity := range snap.entities {
		snap.entities[entity] = dedupSorted(snap.entities[entity])
	}

	snap.version = computeVersion(snap.sections)
	return snap, nil
}

// indexTerms adds the section's term frequencies to the postings.
func (b *Builder) indexTerms(snap *Snapshot, sec section.Section) {
	counts := make(map[string]int)
	for _, tok := range query.Normalize(sec.Text()) {
		counts[tok]++
	}
	for term, tf := range counts {
		snap.postings[term] = append(snap.postings[term], Posting{
			SectionID: sec.ID(),
			TermFreq:  tf,
		})
	}
}

// indexLookups populates the alias and entity tables for the section,
// resolving through the lexicon adapter so deployment-domain synonyms land
// in the same canonical entity slot.
func (b *Builder) indexLookups(snap *Snapshot, sec section.Section) {
	for _, entity := range sec.Entities() {
		snap.entities[entity] = append(snap.entities[entity], sec.ID())
	}
	for _, alias := range sec.Aliases() {
		entity, ok := b.lex.CanonicalEntity(alias)
		if !ok {
			// Alias with no lexicon mapping points at itself.
			entity = alias
		}
		snap.aliases[alias] = entity
		snap.entities[entity] = append(snap.entities[entity], sec.ID())
		for _, variant := range b.lex.ExpandAliases(alias) {
			snap.aliases[variant] = entity
		}
	}
}

// computeVersion derives the snapshot version from the sorted section IDs.
// Identical section sets always produce the same version string.
func computeVersion(sections map[string]section.Section) string {
	ids := make([]string, 0, len(sections))
	for id := range sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := xxhash.New()
	for _, id := range ids {
		_, _ = h.WriteString(id)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("v-%016x", h.Sum64())
}

func dedupSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	var prev string
	for i, v := range in {
		if i > 0 && v == prev {
			continue
		}
		out = append(out, v)
		prev = v
	}
	return out
}
