// Package config loads MarkdownKeeper's TOML configuration file into a
// typed Config struct, adapted from the teacher's generic
// map[string]any ConfigStore into a fixed schema: the spec's config
// sections are known in advance, unlike the teacher's freeform
// per-provider settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root of markdownkeeper.toml, matching the sections
// named in spec.md §6.
type Config struct {
	Watch      WatchConfig      `toml:"watch"`
	Storage    StorageConfig    `toml:"storage"`
	API        APIConfig        `toml:"api"`
	Metadata   MetadataConfig   `toml:"metadata"`
	Cache      CacheConfig      `toml:"cache"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
}

// WatchConfig configures the Watcher.
type WatchConfig struct {
	Roots      []string `toml:"roots"`
	Extensions []string `toml:"extensions"`
	DebounceMs int      `toml:"debounce_ms"`
}

// StorageConfig configures the Store.
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MetadataConfig configures frontmatter enforcement during ingest.
type MetadataConfig struct {
	RequiredFrontmatterFields []string `toml:"required_frontmatter_fields"`
	AutoFillCategory          bool     `toml:"auto_fill_category"`
}

// CacheConfig configures the query cache.
type CacheConfig struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
}

// EmbeddingsConfig configures the active Embedder.
type EmbeddingsConfig struct {
	Model   string `toml:"model"`
	Backend string `toml:"backend"`
}

// Default returns the configuration applied when no file is present,
// mirroring the defaults named throughout spec.md (500ms debounce, 1h
// cache TTL, hash-v1 fallback backend).
func Default() Config {
	home, err := os.UserHomeDir()
	dbPath := "metadata.db"
	if err == nil {
		dbPath = filepath.Join(home, ".markdownkeeper", "data", "metadata.db")
	}

	return Config{
		Watch: WatchConfig{
			Roots:      []string{"."},
			Extensions: []string{".md", ".markdown"},
			DebounceMs: 500,
		},
		Storage: StorageConfig{DatabasePath: dbPath},
		API:     APIConfig{Host: "127.0.0.1", Port: 8420},
		Metadata: MetadataConfig{
			RequiredFrontmatterFields: []string{},
			AutoFillCategory:          true,
		},
		Cache: CacheConfig{Enabled: true, TTLSeconds: 3600},
		Embeddings: EmbeddingsConfig{
			Model:   "all-MiniLM-L6-v2",
			Backend: "hash-v1",
		},
	}
}

// Load reads and parses the TOML file at path, overlaying it onto
// Default() so an absent or partial file still yields a usable
// Config. A missing file is not an error: a fresh install runs on
// defaults until the user writes one.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as
// needed.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
