package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Bounds applied to request parameters.
const (
	MinTopK     = 1
	MaxTopK     = 10
	MinDocLimit = 1
	MaxDocLimit = 25
)

// Config holds all configuration for groundqa.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IngestConfig controls which files are ingested and how they are stored.
type IngestConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	StoreText    bool     `yaml:"store_text"` // keep extracted text in the store
	MaxFileBytes int64    `yaml:"max_file_bytes"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK          int           `yaml:"top_k"`
	DocLimit      int           `yaml:"doc_limit"`
	ChunkSize     int           `yaml:"chunk_size"`
	ChunkOverlap  int           `yaml:"chunk_overlap"`
	MaxCitations  int           `yaml:"max_citations"`
	Workers       int           `yaml:"workers"`
	TextCacheSize int           `yaml:"text_cache_size"`
	TextCacheTTL  time.Duration `yaml:"text_cache_ttl"`
}

// GeneratorConfig holds answer generator configuration.
type GeneratorConfig struct {
	Provider          string        `yaml:"provider"` // "openai", "mock"
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	RetryableStatus   []int         `yaml:"retryable_status"`
	ModelCacheTTL     time.Duration `yaml:"model_cache_ttl"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	BreakerFailures   int           `yaml:"breaker_failures"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes:     []string{"**/*.txt", "**/*.md", "**/*.pdf"},
			Excludes:     []string{"**/.git/**", "**/.groundqa/**", "**/node_modules/**"},
			StoreText:    true,
			MaxFileBytes: 50 << 20,
		},
		Retrieve: RetrieveConfig{
			TopK:          5,
			DocLimit:      10,
			ChunkSize:     1000,
			ChunkOverlap:  100,
			MaxCitations:  3,
			Workers:       4,
			TextCacheSize: 64,
			TextCacheTTL:  10 * time.Minute,
		},
		Generator: GeneratorConfig{
			Provider:          "mock",
			BaseURL:           "http://localhost:11434/v1",
			Model:             "qwen2.5:3b",
			APIKeyEnv:         "OPENAI_API_KEY",
			Temperature:       0,
			Timeout:           60 * time.Second,
			MaxAttempts:       3,
			BaseDelay:         500 * time.Millisecond,
			MaxDelay:          20 * time.Second,
			RetryableStatus:   []int{408, 429, 500, 502, 503, 504},
			ModelCacheTTL:     5 * time.Minute,
			RequestsPerMinute: 60,
			BreakerFailures:   5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for groundqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "groundqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".groundqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate rejects settings that cannot work and clamps request defaults
// into their allowed ranges.
func (c *Config) Validate() error {
	if c.Retrieve.ChunkSize <= 0 {
		return fmt.Errorf("retrieve.chunk_size must be positive, got %d", c.Retrieve.ChunkSize)
	}
	if c.Retrieve.ChunkOverlap < 0 {
		return fmt.Errorf("retrieve.chunk_overlap must not be negative, got %d", c.Retrieve.ChunkOverlap)
	}
	switch c.Generator.Provider {
	case "openai", "mock":
	default:
		return fmt.Errorf("unsupported generator provider: %s", c.Generator.Provider)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	c.Retrieve.TopK = ClampTopK(c.Retrieve.TopK)
	c.Retrieve.DocLimit = ClampDocLimit(c.Retrieve.DocLimit)
	if c.Retrieve.MaxCitations <= 0 {
		c.Retrieve.MaxCitations = 3
	}
	if c.Retrieve.Workers <= 0 {
		c.Retrieve.Workers = 1
	}
	if c.Generator.MaxAttempts <= 0 {
		c.Generator.MaxAttempts = 1
	}
	return nil
}

// ClampTopK forces topK into [MinTopK, MaxTopK].
func ClampTopK(topK int) int {
	return clamp(topK, MinTopK, MaxTopK)
}

// ClampDocLimit forces docLimit into [MinDocLimit, MaxDocLimit].
func ClampDocLimit(docLimit int) int {
	return clamp(docLimit, MinDocLimit, MaxDocLimit)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StoreDBPath returns the path to the document store database.
func StoreDBPath(dir string) string {
	return filepath.Join(dir, ".groundqa", "store.db")
}

// EnsureDataDir ensures the .groundqa directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".groundqa"), 0755)
}
