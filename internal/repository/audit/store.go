// Package audit persists denial records and snapshot publications for the
// compliance trail. Entries carry identifiers and reasons only; section
// text and titles never reach storage.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/groundline-ai/groundline/internal/domain/query"
	"github.com/groundline-ai/groundline/internal/usecase/policy"
)

// store is the consumer interface for audit operations (ISP).
type store interface {
	Ping(ctx context.Context) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

const (
	denialsKey   = "groundline:audit:denials"
	snapshotsKey = "groundline:audit:snapshots"
	counterTTL   = 48 * time.Hour
)

// DenialRecord is the persisted shape of one policy denial.
type DenialRecord struct {
	SectionID string    `json:"section_id"`
	Reason    string    `json:"reason"`
	Region    string    `json:"region"`
	PHI       bool      `json:"phi_clearance"`
	PII       bool      `json:"pii_clearance"`
	At        time.Time `json:"at"`
}

// SnapshotRecord is the persisted shape of one snapshot publication.
type SnapshotRecord struct {
	Version     string    `json:"version"`
	NumSections int       `json:"num_sections"`
	NumTerms    int       `json:"num_terms"`
	At          time.Time `json:"at"`
}

// Store implements audit persistence on Redis lists with bounded length.
type Store struct {
	store  store
	maxLen int64
	now    func() time.Time
}

// New creates an audit store. maxLen bounds each audit list; older entries
// are trimmed away.
func New(s store, maxLen int64) *Store {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &Store{store: s, maxLen: maxLen, now: time.Now}
}

// Ping checks store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// RecordDenial appends a denial entry and bumps the daily denial counter.
func (s *Store) RecordDenial(ctx context.Context, d policy.Denial, caller query.Caller) error {
	now := s.now().UTC()
	rec := DenialRecord{
		SectionID: d.SectionID,
		Reason:    string(d.Reason),
		Region:    caller.Region(),
		PHI:       caller.PHIClearance(),
		PII:       caller.PIIClearance(),
		At:        now,
	}
	if err := s.append(ctx, denialsKey, rec); err != nil {
		return fmt.Errorf("audit denial: %w", err)
	}

	counterKey := fmt.Sprintf("%s:count:%s", denialsKey, now.Format("2006-01-02"))
	if err := s.store.IncrBy(ctx, counterKey, 1); err != nil {
		return fmt.Errorf("audit denial INCRBY: %w", err)
	}
	if err := s.store.Expire(ctx, counterKey, counterTTL, true); err != nil {
		return fmt.Errorf("audit denial EXPIRE: %w", err)
	}
	return nil
}

// RecordSnapshot appends a snapshot publication entry.
func (s *Store) RecordSnapshot(ctx context.Context, version string, numSections, numTerms int) error {
	rec := SnapshotRecord{
		Version:     version,
		NumSections: numSections,
		NumTerms:    numTerms,
		At:          s.now().UTC(),
	}
	if err := s.append(ctx, snapshotsKey, rec); err != nil {
		return fmt.Errorf("audit snapshot: %w", err)
	}
	return nil
}

// RecentDenials returns the most recent n denial records, newest last.
func (s *Store) RecentDenials(ctx context.Context, n int64) ([]DenialRecord, error) {
	rows, err := s.store.LRange(ctx, denialsKey, -n, -1)
	if err != nil {
		return nil, fmt.Errorf("audit LRANGE: %w", err)
	}
	out := make([]DenialRecord, 0, len(rows))
	for _, row := range rows {
		var rec DenialRecord
		if err := json.Unmarshal(row, &rec); err != nil {
			return nil, fmt.Errorf("audit decode: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) append(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := s.store.RPush(ctx, key, data); err != nil {
		return fmt.Errorf("RPUSH: %w", err)
	}
	if err := s.store.LTrim(ctx, key, -s.maxLen, -1); err != nil {
		return fmt.Errorf("LTRIM: %w", err)
	}
	return nil
}
