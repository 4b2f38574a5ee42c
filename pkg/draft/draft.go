package draft

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/scholarnotion/aggregator/pkg/domain"
)

const (
	maxSlugLen     = 70
	maxSummarySeed = 400
)

// Materializer turns accepted records into editorial draft documents.
// Drafts are partitioned by run day, named from the title slug and the
// fingerprint prefix, and never overwritten once created so manual edits
// survive reruns.
type Materializer struct {
	dir string
}

// NewMaterializer creates a materializer writing drafts under dir
func NewMaterializer(dir string) *Materializer {
	return &Materializer{dir: dir}
}

// Materialize writes the draft document for rec and returns its path.
// If the draft already exists its content is left untouched and created is
// false.
func (m *Materializer) Materialize(rec domain.Record, now time.Time) (path string, created bool, err error) {
	folder := filepath.Join(m.dir, now.UTC().Format("2006-01-02"))
	if err := os.MkdirAll(folder, 0o750); err != nil {
		return "", false, fmt.Errorf("create draft dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.md", Slug(rec.Title), rec.DedupeKey[:8])
	path = filepath.Join(folder, name)

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("stat draft: %w", err)
	}

	if err := os.WriteFile(path, []byte(render(rec, now)), 0o640); err != nil { //nolint:gosec // editor-facing document
		return "", false, fmt.Errorf("write draft: %w", err)
	}
	return path, true, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a title to a filesystem-safe name fragment: lowercase,
// non-alphanumeric runs collapsed to "-", trimmed and length-capped, with
// "item" as the fallback for titles that normalize to nothing.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "item"
	}
	return s
}

// render produces the draft body: front matter, title heading, a summary
// seed and the fixed editorial sections. The section headings are parsed
// verbatim by the issue builder, so they must not be renamed.
func render(rec domain.Record, now time.Time) string {
	summary := rec.Summary
	if r := []rune(summary); len(r) > maxSummarySeed {
		summary = string(r[:maxSummarySeed])
	}
	if summary == "" {
		summary = "TODO: add a factual summary based on metadata and source context."
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "source_id: %s\n", rec.SourceID)
	fmt.Fprintf(&b, "source_name: %s\n", rec.SourceName)
	fmt.Fprintf(&b, "source_url: %s\n", rec.URL)
	fmt.Fprintf(&b, "published_at: %q\n", rec.Published)
	fmt.Fprintf(&b, "license_note: %q\n", rec.LicenseNote)
	fmt.Fprintf(&b, "dedupe_key: %s\n", rec.DedupeKey)
	fmt.Fprintf(&b, "created_at_utc: %q\n", domain.TimestampUTC(now))
	b.WriteString("status: draft\n")
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", rec.Title)

	b.WriteString("## What happened\n")
	b.WriteString(summary + "\n\n")

	b.WriteString("## Why it matters\n")
	b.WriteString("TODO: add your analysis in your own words.\n\n")

	b.WriteString("## Commentary\n")
	b.WriteString("TODO: add your editorial perspective and link to related charts.\n\n")

	b.WriteString("## Source\n")
	fmt.Fprintf(&b, "- Original link: %s\n", rec.URL)
	fmt.Fprintf(&b, "- Attribution: %s\n", rec.SourceName)
	fmt.Fprintf(&b, "- License/terms note: %s\n\n", rec.LicenseNote)

	b.WriteString("## Quotation rule\n")
	b.WriteString("Use short quotations only when necessary; keep each quote under policy limits and always attribute.\n")

	return b.String()
}
