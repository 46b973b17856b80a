package section

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// MaxTextSize is the maximum section text size in bytes.
const MaxTextSize = 163840 // 160KB

var idRegex = regexp.MustCompile(`^[0-9a-f]{16}$`)

// ComputeID derives the stable, content-addressed section identifier.
// Identical (fileID, text) pairs always hash to the same ID, so external
// citations survive index rebuilds.
func ComputeID(fileID, text string) string {
	h := xxhash.New()
	_, _ = h.WriteString(fileID)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(text)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ValidID reports whether s has the shape of a content-addressed section ID.
func ValidID(s string) bool { return idRegex.MatchString(s) }

// Security holds the compliance metadata attached to a section.
type Security struct {
	phi       bool
	pii       bool
	residency string // region code, empty = unrestricted
}

// NewSecurity creates section security metadata.
func NewSecurity(phi, pii bool, residency string) Security {
	return Security{phi: phi, pii: pii, residency: residency}
}

// PHI reports whether the section contains protected health information.
func (s Security) PHI() bool { return s.phi }

// PII reports whether the section contains personally identifiable information.
func (s Security) PII() bool { return s.pii }

// Residency returns the data residency region code, empty if unrestricted.
func (s Security) Residency() string { return s.residency }

// Section is the smallest citable unit of ingested text (immutable value object).
type Section struct {
	id            string
	fileID        string
	text          string
	tokenCount    int
	aliases       []string
	entities      []string
	security      Security
	effectiveDate time.Time
}

// New validates and creates a Section. The ID is derived from the content,
// never assigned by the caller.
func New(
	fileID, text string, tokenCount int,
	aliases, entities []string, sec Security, effectiveDate time.Time,
) (Section, error) {
	if fileID == "" {
		return Section{}, fmt.Errorf("file ID is required")
	}
	if text == "" {
		return Section{}, fmt.Errorf("section text is required")
	}
	if len(text) > MaxTextSize {
		return Section{}, fmt.Errorf("section text too large (max %d bytes)", MaxTextSize)
	}
	if tokenCount < 0 {
		return Section{}, fmt.Errorf("token count must be non-negative")
	}
	if tokenCount == 0 {
		tokenCount = estimateTokens(text)
	}

	return Section{
		id:            ComputeID(fileID, text),
		fileID:        fileID,
		text:          text,
		tokenCount:    tokenCount,
		aliases:       normalizeSet(aliases),
		entities:      normalizeSet(entities),
		security:      sec,
		effectiveDate: effectiveDate.UTC(),
	}, nil
}

// Reconstruct creates a Section without validation (snapshot hydration).
func Reconstruct(
	id, fileID, text string, tokenCount int,
	aliases, entities []string, sec Security, effectiveDate time.Time,
) Section {
	return Section{
		id: id, fileID: fileID, text: text, tokenCount: tokenCount,
		aliases: aliases, entities: entities, security: sec,
		effectiveDate: effectiveDate,
	}
}

// ID returns the content-addressed section identifier.
func (s *Section) ID() string { return s.id }

// FileID returns the identifier of the owning document.
func (s *Section) FileID() string { return s.fileID }

// Text returns the raw section text.
func (s *Section) Text() string { return s.text }

// TokenCount returns the precomputed token count.
func (s *Section) TokenCount() int { return s.tokenCount }

// Aliases returns the sorted alias set.
func (s *Section) Aliases() []string { return s.aliases }

// Entities returns the sorted entity set.
func (s *Section) Entities() []string { return s.entities }

// Security returns the compliance metadata.
func (s *Section) Security() Security { return s.security }

// EffectiveDate returns the owning document's effective date (UTC).
func (s *Section) EffectiveDate() time.Time { return s.effectiveDate }

// HasEntity reports whether the given entity is in the section's entity set.
func (s *Section) HasEntity(entity string) bool {
	i := sort.SearchStrings(s.entities, entity)
	return i < len(s.entities) && s.entities[i] == entity
}

// estimateTokens approximates a token count from whitespace-separated words.
// Used only when ingestion did not supply a precomputed count.
func estimateTokens(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				n++
				inWord = true
			}
		}
	}
	return n
}

// normalizeSet sorts and deduplicates a string set.
func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
