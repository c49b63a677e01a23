package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete headrank configuration.
// Values come from defaults, then ~/.headrank/config.yaml, then HEADRANK_* env, then flags.
type Config struct {
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Embedding   BackendConfig     `yaml:"embedding" mapstructure:"embedding"`
	Rerank      BackendConfig     `yaml:"rerank" mapstructure:"rerank"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// InputConfig locates the run inputs
type InputConfig struct {
	PDFDir     string `yaml:"pdf_dir" mapstructure:"pdf_dir"`
	OutlineDir string `yaml:"outline_dir" mapstructure:"outline_dir"`
	SpecFile   string `yaml:"spec_file" mapstructure:"spec_file"`
}

// RetrievalConfig tunes the two-stage scorer
type RetrievalConfig struct {
	TopK      int      `yaml:"top_k" mapstructure:"top_k"`
	Threshold *float64 `yaml:"threshold,omitempty" mapstructure:"threshold"` // Optional stage-1 cosine floor
}

// BackendConfig configures one model backend (embedding or rerank)
type BackendConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider"` // openai, ollama, gemini, tei, local
	Model    string        `yaml:"model" mapstructure:"model"`
	BaseURL  string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey   string        `yaml:"-" mapstructure:"api_key"` // Never written to disk
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls the embedding vector cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig throttles requests to remote backends, per endpoint host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ConcurrencyConfig applies to the batch command only; a single run is sequential
type ConcurrencyConfig struct {
	Collections int `yaml:"collections" mapstructure:"collections"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	File     string `yaml:"file" mapstructure:"file"`
	Markdown string `yaml:"markdown,omitempty" mapstructure:"markdown"`
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
}

// Defaults shared by the CLI and the pipeline
const (
	DefaultTopK        = 50
	DefaultPDFDir      = "input/pdfs"
	DefaultOutlineDir  = "1A/outputs"
	DefaultSpecFile    = "input/challenge1b_input.json"
	DefaultOutputFile  = "output1b.json"
	DefaultEmbedModel  = "all-minilm"
	DefaultRerankModel = "cross-encoder/ms-marco-MiniLM-L-6-v2"
)

// DefaultConfig returns sensible defaults. The local providers need no network.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			PDFDir:     DefaultPDFDir,
			OutlineDir: DefaultOutlineDir,
			SpecFile:   DefaultSpecFile,
		},
		Retrieval: RetrievalConfig{
			TopK: DefaultTopK,
		},
		Embedding: BackendConfig{
			Provider: "local",
			Model:    DefaultEmbedModel,
			Timeout:  60 * time.Second,
		},
		Rerank: BackendConfig{
			Provider: "local",
			Model:    DefaultRerankModel,
			Timeout:  60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Concurrency: ConcurrencyConfig{
			Collections: 2,
		},
		Output: OutputConfig{
			File: DefaultOutputFile,
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".headrank-cache"
	}
	return filepath.Join(dir, "headrank")
}
