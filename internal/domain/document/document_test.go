package document

import (
	"testing"
	"time"

	"github.com/groundline-ai/groundline/internal/domain/section"
)

func mkSection(t *testing.T, fileID, text string) section.Section {
	t.Helper()
	sec, err := section.New(fileID, text, 10, nil, nil, section.Security{}, time.Time{})
	if err != nil {
		t.Fatalf("section.New: %v", err)
	}
	return sec
}

func TestNewValidation(t *testing.T) {
	sec := mkSection(t, "doc-1", "text")
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := New("", "Title", nil, 1, date, false, SourceUpload); err == nil {
		t.Error("expected error for empty ID")
	}
	if _, err := New("doc-1", "", nil, 1, date, false, SourceUpload); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := New("doc-1", "Title", nil, 0, date, false, SourceUpload); err == nil {
		t.Error("expected error for version 0")
	}
	if _, err := New("doc-2", "Title", []section.Section{sec}, 1, date, false, SourceUpload); err == nil {
		t.Error("expected error for section with mismatched file ID")
	}
}

func TestNewAccessors(t *testing.T) {
	secs := []section.Section{mkSection(t, "doc-1", "first"), mkSection(t, "doc-1", "second")}
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	d, err := New("doc-1", "Treatment Guidelines", secs, 3, date, true, SourceCrawl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.ID() != "doc-1" || d.Title() != "Treatment Guidelines" {
		t.Errorf("unexpected identity: %q %q", d.ID(), d.Title())
	}
	if d.Version() != 3 || !d.IsArchived() || d.SourceType() != SourceCrawl {
		t.Errorf("unexpected metadata: v=%d archived=%v src=%s", d.Version(), d.IsArchived(), d.SourceType())
	}
	if len(d.Sections()) != 2 {
		t.Fatalf("sections = %d, want 2", len(d.Sections()))
	}
	if d.Sections()[0].Text() != "first" {
		t.Error("section order not preserved")
	}
}

func TestNewCopiesSections(t *testing.T) {
	secs := []section.Section{mkSection(t, "doc-1", "first")}
	d, err := New("doc-1", "Title", secs, 1, time.Time{}, false, SourceUpload)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	secs[0] = mkSection(t, "doc-1", "replaced")
	if d.Sections()[0].Text() != "first" {
		t.Error("document shares the caller's slice")
	}
}

func TestParseSourceType(t *testing.T) {
	cases := []struct {
		in      string
		want    SourceType
		wantErr bool
	}{
		{in: "", want: SourceUpload},
		{in: "upload", want: SourceUpload},
		{in: "crawl", want: SourceCrawl},
		{in: "external", want: SourceExternal},
		{in: "fax", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseSourceType(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSourceType(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSourceType(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSourceType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
