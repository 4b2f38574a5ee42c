package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid config with defaults", func(t *testing.T) {
		path := writeConfig(t, `
sources:
  - id: worldbank
    name: World Bank Data Blog
    feed_url: https://blogs.worldbank.org/opendata/rss.xml
    license_note: CC BY 4.0
  - id: eurostat
    name: Eurostat News
    feed_url: https://ec.europa.eu/eurostat/news/rss
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		require.Len(t, cfg.Sources, 2)
		assert.Equal(t, "worldbank", cfg.Sources[0].ID)
		assert.Equal(t, "CC BY 4.0", cfg.Sources[0].LicenseNote)
		assert.Empty(t, cfg.Sources[1].LicenseNote)

		// defaults
		assert.Equal(t, "data/aggregator/archive.jsonl", cfg.Paths.Archive)
		assert.Equal(t, "data/aggregator/latest_batch.json", cfg.Paths.Batch)
		assert.Equal(t, "content/insight_drafts", cfg.Paths.Drafts)
		assert.Equal(t, "ScholarNotionBot/1.0 (+https://scholarnotion.com)", cfg.Fetch.UserAgent)
	})

	t.Run("explicit paths kept", func(t *testing.T) {
		path := writeConfig(t, `
sources:
  - id: s1
    name: One
    feed_url: https://example.com/feed
paths:
  archive: /tmp/archive.jsonl
  batch: /tmp/batch.json
  drafts: /tmp/drafts
fetch:
  user_agent: CustomBot/2.0
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/archive.jsonl", cfg.Paths.Archive)
		assert.Equal(t, "/tmp/batch.json", cfg.Paths.Batch)
		assert.Equal(t, "/tmp/drafts", cfg.Paths.Drafts)
		assert.Equal(t, "CustomBot/2.0", cfg.Fetch.UserAgent)
	})

	t.Run("environment variables expanded", func(t *testing.T) {
		t.Setenv("FEED_HOST", "feeds.example.org")
		path := writeConfig(t, `
sources:
  - id: s1
    name: One
    feed_url: https://${FEED_HOST}/rss
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://feeds.example.org/rss", cfg.Sources[0].FeedURL)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "sources: [broken")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("no sources", func(t *testing.T) {
		path := writeConfig(t, "paths:\n  archive: a.jsonl\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one source")
	})

	t.Run("duplicate source ids", func(t *testing.T) {
		path := writeConfig(t, `
sources:
  - id: dup
    name: One
    feed_url: https://example.com/a
  - id: dup
    name: Two
    feed_url: https://example.com/b
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate source id")
	})

	t.Run("missing feed url", func(t *testing.T) {
		path := writeConfig(t, `
sources:
  - id: s1
    name: One
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feed_url is required")
	})
}

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	cfg := &Config{Sources: []Source{{ID: "s1", Name: "One", FeedURL: "https://example.com/feed"}}}
	cfg.Paths.Archive = "a.jsonl"
	cfg.Paths.Batch = "b.json"
	cfg.Paths.Drafts = "drafts"

	require.NoError(t, VerifyAgainstEmbeddedSchema(cfg))

	cfg.Paths.Archive = ""
	require.Error(t, VerifyAgainstEmbeddedSchema(cfg))
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	assert.NotNil(t, schema)
}
