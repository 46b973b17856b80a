// Package index holds the immutable, versioned Section Index: term postings
// with document frequencies, alias/entity lookup tables, and section
// metadata. A snapshot is built once per ingestion cycle and never mutated;
// rebuilds publish a new snapshot through the Holder.
package index

import (
	"time"

	"github.com/groundline-ai/groundline/internal/domain/section"
)

// Posting records one section's occurrence count for a term.
type Posting struct {
	SectionID string
	TermFreq  int
}

// Snapshot is an immutable Section Index. All accessors are safe for
// concurrent use without locking.
type Snapshot struct {
	version  string
	builtAt  time.Time
	sections map[string]section.Section
	postings map[string][]Posting // term -> postings sorted by section ID
	df       map[string]int       // term -> number of sections containing it
	aliases  map[string]string    // alias term -> canonical entity
	entities map[string][]string  // canonical entity -> sorted section IDs
}

// Version returns the content-derived snapshot version.
func (s *Snapshot) Version() string { return s.version }

// BuiltAt returns the build timestamp. It is informational only and carries
// no weight in the version.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// NumSections returns the number of indexed sections.
func (s *Snapshot) NumSections() int { return len(s.sections) }

// NumTerms returns the number of distinct indexed terms.
func (s *Snapshot) NumTerms() int { return len(s.postings) }

// Section returns the section for an ID.
func (s *Snapshot) Section(id string) (section.Section, bool) {
	sec, ok := s.sections[id]
	return sec, ok
}

// Postings returns the posting list for a term, sorted by section ID.
func (s *Snapshot) Postings(term string) []Posting { return s.postings[term] }

// DocFreq returns the number of sections containing the term.
func (s *Snapshot) DocFreq(term string) int { return s.df[term] }

// AliasEntity resolves an alias term to its canonical entity.
func (s *Snapshot) AliasEntity(alias string) (string, bool) {
	e, ok := s.aliases[alias]
	return e, ok
}

// EntitySections returns the sorted IDs of sections carrying the entity.
func (s *Snapshot) EntitySections(entity string) []string { return s.entities[entity] }
