package workingset

import (
	"fmt"
	"sync"

	"github.com/groundline-ai/groundline/internal/domain"
	"github.com/groundline-ai/groundline/internal/domain/section"
)

// Entry is one admitted section together with its router rank.
type Entry struct {
	section section.Section
	rank    int
}

// Section returns the admitted section.
func (e Entry) Section() section.Section { return e.section }

// Rank returns the router rank the section was admitted with (0 = best).
func (e Entry) Rank() int { return e.rank }

// Set is the working set of admitted sections for one request/session.
// It is owned exclusively by that session; all mutation is serialized
// behind one mutex. The cumulative token count never exceeds the budget.
type Set struct {
	mu      sync.Mutex
	budget  int
	used    int
	order   []string // admission order, preserved for citation stability
	entries map[string]Entry
}

// New creates an empty working set with the given token budget.
func New(budgetTokens int) (*Set, error) {
	if budgetTokens <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %d", budgetTokens)
	}
	return &Set{
		budget:  budgetTokens,
		entries: make(map[string]Entry),
	}, nil
}

// Admit adds a section at the given rank. It fails with ErrBudgetExceeded
// (wrapped with the token counts) when the section does not fit, and with
// ErrAlreadyAdmitted on duplicates. On failure the set is unchanged.
func (s *Set) Admit(sec section.Section, rank int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[sec.ID()]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyAdmitted, sec.ID())
	}
	if s.used+sec.TokenCount() > s.budget {
		return domain.NewBudgetExceeded(sec.TokenCount(), s.budget-s.used)
	}

	s.entries[sec.ID()] = Entry{section: sec, rank: rank}
	s.order = append(s.order, sec.ID())
	s.used += sec.TokenCount()
	return nil
}

// Release frees a previously admitted section's tokens.
func (s *Set) Release(sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sectionID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotAdmitted, sectionID)
	}

	delete(s.entries, sectionID)
	for i, id := range s.order {
		if id == sectionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.used -= e.section.TokenCount()
	return nil
}

// Contains reports whether the section is currently admitted.
func (s *Set) Contains(sectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[sectionID]
	return ok
}

// Budget returns the configured token budget.
func (s *Set) Budget() int {
	return s.budget
}

// Used returns the cumulative tokens of admitted sections.
func (s *Set) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Remaining returns the unused budget.
func (s *Set) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget - s.used
}

// Len returns the number of admitted sections.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns the admitted entries in admission order.
func (s *Set) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Get returns the entry for a section ID.
func (s *Set) Get(sectionID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sectionID]
	return e, ok
}
