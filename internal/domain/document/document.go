package document

import (
	"fmt"
	"time"

	"github.com/groundline-ai/groundline/internal/domain/section"
)

// SourceType identifies the origin of an ingested document.
type SourceType string

// Source type constants.
const (
	SourceUpload   SourceType = "upload"
	SourceCrawl    SourceType = "crawl"
	SourceExternal SourceType = "external"
)

// ParseSourceType maps an ingestion source string to a SourceType.
// Ingestion may omit the field; empty input defaults to SourceUpload.
func ParseSourceType(s string) (SourceType, error) {
	switch st := SourceType(s); st {
	case "":
		return SourceUpload, nil
	case SourceUpload, SourceCrawl, SourceExternal:
		return st, nil
	default:
		return "", fmt.Errorf("unknown source type %q", s)
	}
}

// Document is an ingested document with its ordered sections (immutable value object).
type Document struct {
	id            string
	title         string
	sections      []section.Section
	version       int
	effectiveDate time.Time
	isArchived    bool
	sourceType    SourceType
}

// New validates and creates a Document.
func New(
	id, title string, sections []section.Section,
	version int, effectiveDate time.Time, isArchived bool, sourceType SourceType,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if title == "" {
		return Document{}, fmt.Errorf("document title is required")
	}
	if version < 1 {
		return Document{}, fmt.Errorf("document version must be >= 1, got %d", version)
	}
	for i := range sections {
		if sections[i].FileID() != id {
			return Document{}, fmt.Errorf(
				"section %s belongs to file %q, not %q",
				sections[i].ID(), sections[i].FileID(), id,
			)
		}
	}

	return Document{
		id:            id,
		title:         title,
		sections:      append([]section.Section(nil), sections...),
		version:       version,
		effectiveDate: effectiveDate.UTC(),
		isArchived:    isArchived,
		sourceType:    sourceType,
	}, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Sections returns the ordered sections.
func (d *Document) Sections() []section.Section { return d.sections }

// Version returns the document version.
func (d *Document) Version() int { return d.version }

// EffectiveDate returns the effective date (UTC).
func (d *Document) EffectiveDate() time.Time { return d.effectiveDate }

// IsArchived reports whether the document has been archived.
func (d *Document) IsArchived() bool { return d.isArchived }

// SourceType returns the document origin.
func (d *Document) SourceType() SourceType { return d.sourceType }
