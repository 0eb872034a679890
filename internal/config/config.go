package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures analysis tuning, the embedding and LLM providers, and storage.
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type AnalysisConfig struct {
	// Minimum non-empty messages for a participant to be analyzed
	MinMessages int `yaml:"minMessages"`
	// Upper bound (exclusive) on the k range tried by the clusterer
	MaxClusters int   `yaml:"maxClusters"`
	TopKeywords int   `yaml:"topKeywords"`
	Seed        int64 `yaml:"seed"`
	// Participants processed in parallel
	Concurrency int `yaml:"concurrency"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // "hash" or "openai"
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// If empty, read from env OPENAI_API_KEY
	APIKey    string  `yaml:"apiKey"`
	CacheSize int     `yaml:"cacheSize"`
	RPS       float64 `yaml:"rps"`
	Burst     int     `yaml:"burst"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "none"
	Model    string `yaml:"model"`
	// If empty, read from env OPENAI_API_KEY
	APIKey string  `yaml:"apiKey"`
	RPS    float64 `yaml:"rps"`
	Burst  int     `yaml:"burst"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{MinMessages: 5, MaxClusters: 10, TopKeywords: 10, Seed: 42, Concurrency: 4},
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Model:      "text-embedding-3-small",
			Dimensions: 384,
			CacheSize:  4096,
			RPS:        5,
			Burst:      10,
		},
		LLM:     LLMConfig{Provider: "none", Model: "gpt-4o", RPS: 2, Burst: 4},
		Storage: StorageConfig{DBPath: "./ateveryone.db"},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	key := os.Getenv("OPENAI_API_KEY")
	if c.Embedding.APIKey == "" && c.Embedding.Provider == "openai" {
		c.Embedding.APIKey = key
	}
	if c.LLM.APIKey == "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = key
	}
	// the database path is usually per environment, so the variable wins
	if v := os.Getenv("ATEVERYONE_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

// Validate reports the first setting that would make a run fail.
func (c Config) Validate() error {
	if c.Analysis.MinMessages < 1 {
		return errors.New("analysis.minMessages must be >= 1")
	}
	if c.Analysis.MaxClusters < 3 {
		return fmt.Errorf("analysis.maxClusters must be >= 3, got %d", c.Analysis.MaxClusters)
	}
	if c.Analysis.TopKeywords < 1 {
		return errors.New("analysis.topKeywords must be >= 1")
	}
	if c.Analysis.Concurrency < 1 {
		return errors.New("analysis.concurrency must be >= 1")
	}
	if c.Embedding.Dimensions < 1 {
		return errors.New("embedding.dimensions must be >= 1")
	}
	switch strings.ToLower(c.Embedding.Provider) {
	case "hash":
	case "openai":
		if c.Embedding.APIKey == "" {
			return errors.New("embedding.provider openai requires an api key (OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "", "none":
	case "openai":
		if c.LLM.APIKey == "" {
			return errors.New("llm.provider openai requires an api key (OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	return nil
}

// Load reads YAML config from path. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
