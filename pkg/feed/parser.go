package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/scholarnotion/aggregator/pkg/domain"
)

// ErrMalformedFeed indicates the document is not well-formed XML. Callers
// catch it and skip the source for the run.
var ErrMalformedFeed = errors.New("malformed feed")

// dialect is the closed set of feed formats the parser understands
type dialect int

const (
	dialectUnknown dialect = iota
	dialectRSS
	dialectAtom
)

// Parser normalizes RSS 2.0 and Atom documents into entries
type Parser struct {
	sanitizer *bluemonday.Policy
}

// NewParser creates a feed parser
func NewParser() *Parser {
	return &Parser{sanitizer: bluemonday.StrictPolicy()}
}

// Parse detects the feed dialect from the root element and returns entries
// normalized to the common shape, in document order. A well-formed document
// of an unrecognized dialect yields no entries and no error; a document that
// is not XML at all yields ErrMalformedFeed.
func (p *Parser) Parse(data []byte) ([]domain.Entry, error) {
	d, err := detectDialect(data)
	if err != nil {
		return nil, err
	}
	if d == dialectUnknown {
		return nil, nil
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if d == dialectRSS {
			entries = append(entries, p.rssEntry(item))
			continue
		}
		entries = append(entries, p.atomEntry(item))
	}
	return entries, nil
}

// rssEntry maps an RSS 2.0 item: title/link/pubDate/description/author
func (p *Parser) rssEntry(item *gofeed.Item) domain.Entry {
	return domain.Entry{
		Title:     p.sanitize(item.Title),
		URL:       item.Link,
		Published: item.Published,
		Summary:   p.sanitize(item.Description),
		Authors:   joinAuthors(item.Authors),
	}
}

// atomEntry maps an Atom entry: updated wins over published, summary falls
// back to content, and the link comes from the first rel-less or alternate
// link element.
func (p *Parser) atomEntry(item *gofeed.Item) domain.Entry {
	published := item.Updated
	if published == "" {
		published = item.Published
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return domain.Entry{
		Title:     p.sanitize(item.Title),
		URL:       item.Link,
		Published: published,
		Summary:   p.sanitize(summary),
		Authors:   joinAuthors(item.Authors),
	}
}

// sanitize decodes HTML entities, strips tag markup and collapses whitespace.
// Applied to titles and summaries only; links and author names pass through
// untouched.
func (p *Parser) sanitize(s string) string {
	s = html.UnescapeString(s)
	s = p.sanitizer.Sanitize(s)
	s = html.UnescapeString(s) // the policy re-escapes text content
	return strings.Join(strings.Fields(s), " ")
}

// joinAuthors concatenates author display names, skipping empty ones
func joinAuthors(authors []*gofeed.Person) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a == nil || a.Name == "" {
			continue
		}
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// detectDialect finds the document's root element and matches its local name
// suffix, so namespace-qualified roots like ns:rss are recognized too.
func detectDialect(data []byte) (dialect, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return dialectUnknown, fmt.Errorf("%w: no root element", ErrMalformedFeed)
		}
		if err != nil {
			return dialectUnknown, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		name := strings.ToLower(start.Name.Local)
		switch {
		case strings.HasSuffix(name, "rss"):
			return dialectRSS, nil
		case strings.HasSuffix(name, "feed"):
			return dialectAtom, nil
		}
		return dialectUnknown, nil
	}
}
