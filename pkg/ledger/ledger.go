package ledger

import (
	"bufio"
	"crypto/sha1" //nolint:gosec // non-cryptographic identity key
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scholarnotion/aggregator/pkg/domain"
)

// Ledger is the append-only dedupe archive. Every line of the backing file is
// one self-contained JSON record; the file is never rewritten or truncated,
// and a run is assumed to be the only writer. Overlapping runs against the
// same archive are undefined behavior.
type Ledger struct {
	path string
}

// New creates a ledger backed by the archive file at path
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Load replays the archive and returns the set of known fingerprints.
// Lines that fail to parse or carry no dedupe_key are skipped and counted,
// tolerating a partial trailing write from a crashed run. Unknown fields in
// historical lines are ignored. A missing archive yields an empty set.
func (l *Ledger) Load() (keys map[string]struct{}, skipped int, err error) {
	keys = make(map[string]struct{})

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return keys, 0, nil // first-run bootstrap
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec struct {
			DedupeKey string `json:"dedupe_key"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.DedupeKey == "" {
			skipped++
			continue
		}
		keys[rec.DedupeKey] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read archive: %w", err)
	}

	return keys, skipped, nil
}

// Append writes one JSON line per record to the archive, creating it if
// needed. This is the sole mutation path; existing content is never touched.
func (l *Ledger) Append(records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) //nolint:gosec // path comes from config
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			_ = f.Close()
			return fmt.Errorf("append record %s: %w", rec.DedupeKey, err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

// Fingerprint derives the dedupe key for a (source id, url, title) triple.
// Each field is hashed with a length prefix, so a field containing a
// delimiter character can never collide with a differently split triple.
// The same triple always yields the same key, across runs and processes.
func Fingerprint(sourceID, url, title string) string {
	h := sha1.New() //nolint:gosec // identity key, not a security boundary
	for _, field := range []string{sourceID, strings.TrimSpace(url), strings.TrimSpace(title)} {
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(len(field)))
		h.Write(size[:])         //nolint:errcheck // hash writes never fail
		io.WriteString(h, field) //nolint:errcheck // hash writes never fail
	}
	return hex.EncodeToString(h.Sum(nil))
}
