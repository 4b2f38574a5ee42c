package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Source describes one configured open-license feed. Sources are loaded once
// per run and never mutated.
type Source struct {
	ID          string `yaml:"id" json:"id" jsonschema:"required,description=Stable source identifier unique across the config"`
	Name        string `yaml:"name" json:"name" jsonschema:"required,description=Display name used in drafts and attribution"`
	FeedURL     string `yaml:"feed_url" json:"feed_url" jsonschema:"required,description=RSS or Atom feed URL"`
	LicenseNote string `yaml:"license_note" json:"license_note" jsonschema:"description=Free-text license/terms note, may be empty"`
}

// Config holds the application configuration
type Config struct {
	Sources []Source `yaml:"sources" json:"sources" jsonschema:"required,description=Feeds to aggregate"`

	Paths struct {
		Archive string `yaml:"archive" json:"archive" jsonschema:"default=data/aggregator/archive.jsonl,description=Append-only dedupe archive (JSONL)"`
		Batch   string `yaml:"batch" json:"batch" jsonschema:"default=data/aggregator/latest_batch.json,description=Per-run batch output overwritten each run"`
		Drafts  string `yaml:"drafts" json:"drafts" jsonschema:"default=content/insight_drafts,description=Root directory for generated insight drafts"`
	} `yaml:"paths" json:"paths" jsonschema:"description=Pipeline file locations"`

	Fetch struct {
		UserAgent string `yaml:"user_agent" json:"user_agent" jsonschema:"default=ScholarNotionBot/1.0 (+https://scholarnotion.com),description=User agent for feed requests"`
	} `yaml:"fetch" json:"fetch" jsonschema:"description=Feed fetching configuration"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for paths
	if cfg.Paths.Archive == "" {
		cfg.Paths.Archive = "data/aggregator/archive.jsonl"
	}
	if cfg.Paths.Batch == "" {
		cfg.Paths.Batch = "data/aggregator/latest_batch.json"
	}
	if cfg.Paths.Drafts == "" {
		cfg.Paths.Drafts = "content/insight_drafts"
	}

	// set defaults for fetching
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "ScholarNotionBot/1.0 (+https://scholarnotion.com)"
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d].id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = true

		if src.Name == "" {
			return fmt.Errorf("source %s: name is required", src.ID)
		}
		if src.FeedURL == "" {
			return fmt.Errorf("source %s: feed_url is required", src.ID)
		}
	}

	return nil
}
