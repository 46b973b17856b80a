package index

import "time"

// SectionRecord is one validated section produced by the external ingestion
// collaborator. The builder consumes records as-is and never parses raw
// source documents itself.
type SectionRecord struct {
	FileID        string    `json:"file_id"`
	FileTitle     string    `json:"file_title"`
	FileVersion   int       `json:"file_version"`
	SourceType    string    `json:"source_type"`
	EffectiveDate time.Time `json:"effective_date"`
	IsArchived    bool      `json:"is_archived"`

	Text       string   `json:"text"`
	TokenCount int      `json:"token_count"`
	Aliases    []string `json:"aliases,omitempty"`
	Entities   []string `json:"entities,omitempty"`

	PHI       bool   `json:"phi"`
	PII       bool   `json:"pii"`
	Residency string `json:"residency,omitempty"`
}
