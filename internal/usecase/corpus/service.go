// Package corpus turns ingestion output into published index snapshots.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain/document"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/index"
)

// Service builds and publishes index snapshots.
type Service struct {
	builder *index.Builder
	holder  Publisher
	audit   SnapshotRecorder
	logger  *zap.Logger
}

// New creates a corpus service. audit may be nil.
func New(builder *index.Builder, holder Publisher, audit SnapshotRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{builder: builder, holder: holder, audit: audit, logger: logger}
}

// Publish validates the records as documents, builds a snapshot, and swaps
// it in atomically. In-flight requests keep the snapshot they started with.
func (s *Service) Publish(ctx context.Context, records []index.SectionRecord) (*index.Snapshot, error) {
	docs, err := groupDocuments(records)
	if err != nil {
		return nil, fmt.Errorf("validate corpus: %w", err)
	}

	snap, err := s.builder.Build(records)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	s.holder.Publish(snap)

	for i := range docs {
		doc := &docs[i]
		s.logger.Debug("document published",
			zap.String("file_id", doc.ID()),
			zap.String("title", doc.Title()),
			zap.Int("version", doc.Version()),
			zap.String("source_type", string(doc.SourceType())),
			zap.Int("sections", len(doc.Sections())),
			zap.Bool("archived", doc.IsArchived()),
		)
	}
	s.logger.Info("index snapshot published",
		zap.String("version", snap.Version()),
		zap.Int("documents", len(docs)),
		zap.Int("sections", snap.NumSections()),
		zap.Int("terms", snap.NumTerms()),
	)

	if s.audit != nil {
		if err := s.audit.RecordSnapshot(ctx, snap.Version(), snap.NumSections(), snap.NumTerms()); err != nil {
			s.logger.Warn("snapshot audit record failed", zap.Error(err))
		}
	}
	return snap, nil
}

// PublishFile loads section records from the ingestion collaborator's JSON
// output and publishes them. Used to seed the index at startup.
func (s *Service) PublishFile(ctx context.Context, path string) (*index.Snapshot, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	var records []index.SectionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return s.Publish(ctx, records)
}

// groupDocuments assembles the flat record stream into Document values,
// one per owning file, in first-seen order. The builder consumes records
// directly; the document pass catches inconsistent document-level fields
// (conflicting titles or versions, unknown source types) before a snapshot
// is built from them. Ingestion may omit title, version, and source type;
// they default to the file ID, version 1, and upload.
func groupDocuments(records []index.SectionRecord) ([]document.Document, error) {
	type fileGroup struct {
		title      string
		version    int
		sourceType string
		effective  time.Time
		archived   bool
		sections   []section.Section
	}

	var order []string
	groups := make(map[string]*fileGroup)

	for i, rec := range records {
		g, ok := groups[rec.FileID]
		if !ok {
			g = &fileGroup{effective: rec.EffectiveDate, archived: true}
			groups[rec.FileID] = g
			order = append(order, rec.FileID)
		}

		if rec.FileTitle != "" {
			if g.title != "" && g.title != rec.FileTitle {
				return nil, fmt.Errorf("file %q: conflicting titles %q and %q", rec.FileID, g.title, rec.FileTitle)
			}
			g.title = rec.FileTitle
		}
		if rec.FileVersion != 0 {
			if g.version != 0 && g.version != rec.FileVersion {
				return nil, fmt.Errorf("file %q: conflicting versions %d and %d", rec.FileID, g.version, rec.FileVersion)
			}
			g.version = rec.FileVersion
		}
		if rec.SourceType != "" {
			if g.sourceType != "" && g.sourceType != rec.SourceType {
				return nil, fmt.Errorf("file %q: conflicting source types %q and %q", rec.FileID, g.sourceType, rec.SourceType)
			}
			g.sourceType = rec.SourceType
		}

		if rec.IsArchived {
			continue
		}
		g.archived = false
		sec, err := section.New(
			rec.FileID, rec.Text, rec.TokenCount,
			rec.Aliases, rec.Entities,
			section.NewSecurity(rec.PHI, rec.PII, rec.Residency),
			rec.EffectiveDate,
		)
		if err != nil {
			return nil, fmt.Errorf("record %d (file %q): %w", i, rec.FileID, err)
		}
		g.sections = append(g.sections, sec)
	}

	docs := make([]document.Document, 0, len(order))
	for _, fileID := range order {
		g := groups[fileID]
		title := g.title
		if title == "" {
			title = fileID
		}
		version := g.version
		if version == 0 {
			version = 1
		}
		sourceType, err := document.ParseSourceType(g.sourceType)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", fileID, err)
		}
		doc, err := document.New(fileID, title, g.sections, version, g.effective, g.archived, sourceType)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", fileID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
