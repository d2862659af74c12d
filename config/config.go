package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docrag/internal/domain"
)

// Config holds all configuration for docrag.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds document discovery and chunking configuration.
type IndexConfig struct {
	DocsDir      string   `yaml:"docs_dir"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedding service configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "ollama", "openai", "mock"
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"` // 0 disables retries
	CacheSize   int    `yaml:"cache_size"`  // query embedding cache entries
	Dimension   int    `yaml:"dimension"`   // mock provider only

	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables rate limiting
	Burst             int     `yaml:"burst"`
}

// StoreConfig selects where the chunk index is persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "json" or "bolt"
	Path    string `yaml:"path"`    // relative to the root directory unless absolute
}

// RetrieveConfig holds query-time configuration.
type RetrieveConfig struct {
	TopK      int    `yaml:"top_k"`
	Separator Separator `yaml:"separator"`
}

// Separator joins chunk texts in a context string. It is always written as
// a double-quoted scalar so leading newlines survive a Save/Load cycle.
type Separator string

func (s Separator) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: yaml.DoubleQuotedStyle,
		Value: string(s),
	}, nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			DocsDir:      "docs_raw",
			Includes:     []string{"**/*.pdf", "**/*.txt", "**/*.md"},
			Excludes:     []string{"**/.rag/**", "**/.git/**"},
			ChunkSize:    800,
			ChunkOverlap: 100,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "nomic-embed-text",
			BaseURL:     "http://localhost:11434",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 60,
			MaxRetries:  0,
			CacheSize:   1000,
			Dimension:   64,
		},
		Store: StoreConfig{
			Backend: "json",
		},
		Retrieve: RetrieveConfig{
			TopK:      5,
			Separator: "\n\n---\n\n",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports settings that cannot work. Chunking parameters must
// satisfy chunk_size > chunk_overlap > 0.
func (c *Config) Validate() error {
	if c.Index.ChunkOverlap <= 0 || c.Index.ChunkSize <= c.Index.ChunkOverlap {
		return fmt.Errorf("%w: chunk_size (%d) must be greater than chunk_overlap (%d) > 0", domain.ErrInvalidConfiguration,
			c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	switch c.Store.Backend {
	case "json", "bolt":
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfiguration, c.Store.Backend)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second must not be negative", domain.ErrInvalidConfiguration)
	}
	if c.Retrieve.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative, got %d", domain.ErrInvalidConfiguration, c.Retrieve.TopK)
	}
	return nil
}

// RAGDir returns the directory holding index artifacts.
func RAGDir(dir string) string {
	return filepath.Join(dir, ".rag")
}

// IndexPath returns the path of the persisted chunk index for the configured backend.
func IndexPath(dir string, cfg *Config) string {
	if cfg.Store.Path != "" {
		if filepath.IsAbs(cfg.Store.Path) {
			return cfg.Store.Path
		}
		return filepath.Join(dir, cfg.Store.Path)
	}
	if cfg.Store.Backend == "bolt" {
		return filepath.Join(RAGDir(dir), "index.db")
	}
	return filepath.Join(RAGDir(dir), "chunks.json")
}

// DocsPath returns the corpus directory.
func DocsPath(dir string, cfg *Config) string {
	if filepath.IsAbs(cfg.Index.DocsDir) {
		return cfg.Index.DocsDir
	}
	return filepath.Join(dir, cfg.Index.DocsDir)
}

// EnsureRAGDir ensures the .rag directory exists.
func EnsureRAGDir(dir string) error {
	return os.MkdirAll(RAGDir(dir), 0755)
}
