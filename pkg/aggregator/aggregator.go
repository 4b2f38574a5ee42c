package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/scholarnotion/aggregator/pkg/config"
	"github.com/scholarnotion/aggregator/pkg/domain"
	"github.com/scholarnotion/aggregator/pkg/ledger"
)

// Fetcher retrieves raw feed bytes for a source
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser normalizes raw feed bytes into entries
type Parser interface {
	Parse(data []byte) ([]domain.Entry, error)
}

// Archive replays known fingerprints and persists accepted records
type Archive interface {
	Load() (keys map[string]struct{}, skipped int, err error)
	Append(records []domain.Record) error
}

// Drafter materializes an editorial draft document for a record
type Drafter interface {
	Materialize(rec domain.Record, now time.Time) (path string, created bool, err error)
}

// Runner executes one aggregation pass over the configured sources.
// Sources are processed strictly in configured order, one at a time; the
// run owns both the in-memory novelty set and the archive file, and runs
// are assumed not to overlap.
type Runner struct {
	sources      []config.Source
	fetcher      Fetcher
	parser       Parser
	archive      Archive
	drafter      Drafter
	batchPath    string
	maxPerSource int
	dryRun       bool
	now          func() time.Time
}

// RunnerConfig holds Runner dependencies and settings
type RunnerConfig struct {
	Sources      []config.Source
	Fetcher      Fetcher
	Parser       Parser
	Archive      Archive
	Drafter      Drafter
	BatchPath    string
	MaxPerSource int
	DryRun       bool
	Now          func() time.Time // defaults to time.Now, overridable in tests
}

// NewRunner creates a runner with the provided configuration
func NewRunner(cfg RunnerConfig) *Runner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		sources:      cfg.Sources,
		fetcher:      cfg.Fetcher,
		parser:       cfg.Parser,
		archive:      cfg.Archive,
		drafter:      cfg.Drafter,
		batchPath:    cfg.BatchPath,
		maxPerSource: cfg.MaxPerSource,
		dryRun:       cfg.DryRun,
		now:          now,
	}
}

// Result summarizes one aggregation run
type Result struct {
	Batch        []domain.Record // accepted records in acceptance order
	Drafts       []string        // draft paths, one per accepted record
	SkippedLines int             // unparsable archive lines ignored during load
}

// Run fetches all sources, filters entries through the archive and returns
// the accepted batch. The batch file is always (re)written; the archive and
// drafts are only touched when the run is not a dry run. A failing source is
// logged and skipped, never aborting the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	known, skipped, err := r.archive.Load()
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	if skipped > 0 {
		lgr.Printf("[WARN] archive: skipped %d unparsable lines", skipped)
	}

	batch := []domain.Record{}
	for _, src := range r.sources {
		batch = append(batch, r.processSource(ctx, src, known)...)
	}

	if err := r.writeBatch(batch); err != nil {
		return nil, fmt.Errorf("write batch: %w", err)
	}

	res := &Result{Batch: batch, SkippedLines: skipped}
	if r.dryRun {
		lgr.Printf("[INFO] dry-run: %d new items, archive and drafts untouched", len(batch))
		return res, nil
	}

	if len(batch) > 0 {
		if err := r.archive.Append(batch); err != nil {
			return nil, fmt.Errorf("append archive: %w", err)
		}
	}

	for _, rec := range batch {
		path, created, err := r.drafter.Materialize(rec, r.now())
		if err != nil {
			return nil, fmt.Errorf("materialize draft for %s: %w", rec.DedupeKey, err)
		}
		if !created {
			lgr.Printf("[DEBUG] draft already exists: %s", path)
		}
		res.Drafts = append(res.Drafts, path)
	}

	return res, nil
}

// processSource fetches and filters one source. Entries are walked in feed
// order; an entry with an empty URL or an already-seen fingerprint is
// rejected without consuming the per-source cap. The novelty set is updated
// on acceptance so identical entries later in the same run are rejected too.
func (r *Runner) processSource(ctx context.Context, src config.Source, known map[string]struct{}) []domain.Record {
	data, err := r.fetcher.Fetch(ctx, src.FeedURL)
	if err != nil {
		lgr.Printf("[WARN] %s: fetch failed: %v", src.ID, err)
		return nil
	}

	entries, err := r.parser.Parse(data)
	if err != nil {
		lgr.Printf("[WARN] %s: parse failed: %v", src.ID, err)
		return nil
	}

	var accepted []domain.Record
	for _, e := range entries {
		if len(accepted) >= r.maxPerSource {
			break
		}
		if e.URL == "" {
			continue
		}

		key := ledger.Fingerprint(src.ID, e.URL, e.Title)
		if _, seen := known[key]; seen {
			continue
		}
		known[key] = struct{}{}

		accepted = append(accepted, domain.Record{
			DedupeKey:    key,
			SourceID:     src.ID,
			SourceName:   src.Name,
			LicenseNote:  src.LicenseNote,
			FetchedAtUTC: domain.TimestampUTC(r.now()),
			Entry:        e,
		})
	}

	lgr.Printf("[INFO] %s: %d entries, %d accepted", src.ID, len(entries), len(accepted))
	return accepted
}

// writeBatch overwrites the per-run batch artifact, a pretty-printed JSON
// array downstream consumers read as "what changed this run". Written even
// when empty so a no-op run is distinguishable from a run that never
// happened.
func (r *Runner) writeBatch(batch []domain.Record) error {
	if dir := filepath.Dir(r.batchPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create batch dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	if err := os.WriteFile(r.batchPath, append(data, '\n'), 0o640); err != nil { //nolint:gosec // downstream-readable artifact
		return fmt.Errorf("write batch file: %w", err)
	}
	return nil
}
