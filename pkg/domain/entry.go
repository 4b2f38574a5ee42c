package domain

// Entry is a single feed item normalized to the common shape shared by both
// dialects. Every field is a plain string with an empty-string default so
// downstream formatting never has to deal with missing values.
type Entry struct {
	Title     string `json:"title"`     // sanitized plain text
	URL       string `json:"url"`       // absolute link, may be empty
	Published string `json:"published"` // original timestamp string as the feed gave it
	Summary   string `json:"summary"`   // sanitized plain text, may be empty
	Authors   string `json:"authors"`   // comma-joined display names, may be empty
}
