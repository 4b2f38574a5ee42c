package domain

import "time"

// Record is one archived acceptance of an entry. Records are created exactly
// once when an entry is first seen and are never updated or deleted; the JSON
// field names are the archive line format and must stay stable.
type Record struct {
	DedupeKey    string `json:"dedupe_key"`
	SourceID     string `json:"source_id"`
	SourceName   string `json:"source_name"`
	LicenseNote  string `json:"license_note"`
	FetchedAtUTC string `json:"fetched_at_utc"`
	Entry
}

// TimestampUTC renders t in the canonical form used by the archive, the batch
// file and draft front matter. All persisted timestamps go through here.
func TimestampUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
