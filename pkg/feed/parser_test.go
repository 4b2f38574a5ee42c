package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseRSS(t *testing.T) {
	p := NewParser()

	t.Run("minimal item", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<item>
			<title>A</title>
			<link>http://x/1</link>
		</item>
	</channel>
</rss>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, "A", entries[0].Title)
		assert.Equal(t, "http://x/1", entries[0].URL)
		assert.Empty(t, entries[0].Published)
		assert.Empty(t, entries[0].Summary)
		assert.Empty(t, entries[0].Authors)
	})

	t.Run("full item keeps pubDate as given", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<item>
			<title>Economic Outlook</title>
			<link>https://example.com/outlook</link>
			<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
			<description>Quarterly projections released.</description>
		</item>
	</channel>
</rss>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, "Economic Outlook", entries[0].Title)
		assert.Equal(t, "https://example.com/outlook", entries[0].URL)
		assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", entries[0].Published)
		assert.Equal(t, "Quarterly projections released.", entries[0].Summary)
	})

	t.Run("title and description sanitized", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<item>
			<title><![CDATA[Report &amp; <b>Summary</b>]]></title>
			<link>http://x/1</link>
			<description><![CDATA[<p>First   line</p> <p>second  line</p>]]></description>
		</item>
	</channel>
</rss>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, "Report & Summary", entries[0].Title)
		assert.Equal(t, "First line second line", entries[0].Summary)
	})

	t.Run("missing link stays empty", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<item><title>No Link</title></item>
	</channel>
</rss>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Empty(t, entries[0].URL)
	})
}

func TestParser_ParseAtom(t *testing.T) {
	p := NewParser()

	t.Run("alternate link selected", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Test Atom Feed</title>
	<entry>
		<title>A</title>
		<id>e1</id>
		<link rel="enclosure" href="http://x/attachment"/>
		<link rel="alternate" href="http://x/1"/>
	</entry>
</feed>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, "A", entries[0].Title)
		assert.Equal(t, "http://x/1", entries[0].URL)
	})

	t.Run("updated preferred over published", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<entry>
		<title>Dated</title>
		<id>e1</id>
		<link href="http://x/1"/>
		<published>2024-01-01T00:00:00Z</published>
		<updated>2024-01-02T00:00:00Z</updated>
	</entry>
</feed>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "2024-01-02T00:00:00Z", entries[0].Published)
	})

	t.Run("summary falls back to content", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<entry>
		<title>With Content</title>
		<id>e1</id>
		<link href="http://x/1"/>
		<content>Full content here</content>
	</entry>
</feed>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Full content here", entries[0].Summary)
	})

	t.Run("authors comma-joined", func(t *testing.T) {
		data := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<entry>
		<title>Co-authored</title>
		<id>e1</id>
		<link href="http://x/1"/>
		<author><name>Jane Doe</name></author>
		<author><name>John Roe</name></author>
	</entry>
</feed>`

		entries, err := p.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Jane Doe, John Roe", entries[0].Authors)
	})
}

func TestParser_ParseDialects(t *testing.T) {
	p := NewParser()

	t.Run("unrecognized root yields no entries and no error", func(t *testing.T) {
		entries, err := p.Parse([]byte(`<html><body>hello</body></html>`))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("non-xml input is malformed", func(t *testing.T) {
		_, err := p.Parse([]byte("not xml content"))
		require.ErrorIs(t, err, ErrMalformedFeed)
	})

	t.Run("empty input is malformed", func(t *testing.T) {
		_, err := p.Parse([]byte(""))
		require.ErrorIs(t, err, ErrMalformedFeed)
	})

	t.Run("truncated rss document is malformed", func(t *testing.T) {
		_, err := p.Parse([]byte(`<rss version="2.0"><channel><item><title>A`))
		require.ErrorIs(t, err, ErrMalformedFeed)
	})
}
