package embed

import (
	"context"
	"time"

	"github.com/ppiankov/headrank/internal/model"
	"github.com/ppiankov/headrank/internal/worker"
)

// Embedder maps texts to dense vectors. Output order matches input order.
type Embedder interface {
	// Embed returns one vector per input text in a single batched request
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the model, used in cache keys
	ModelName() string

	// Close releases resources held by the backend
	Close() error
}

// Reranker scores (query, text) pairs with a cross-encoder.
// Scores are raw logits, higher is more relevant.
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
	ModelName() string
	Close() error
}

// Config holds the settings of one backend
type Config struct {
	// Provider name: "openai", "ollama", "gemini", "tei", "local"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Gemini
	APIKey string

	// BaseURL for custom endpoints (Ollama, TEI, OpenAI-compatible servers)
	BaseURL string

	Timeout time.Duration

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string

	// Limiter throttles outgoing requests per endpoint host; nil disables throttling
	Limiter *worker.Limiter
}

// ConfigFromModel converts a model.BackendConfig to an embed.Config
func ConfigFromModel(b model.BackendConfig, limiter *worker.Limiter) Config {
	return Config{
		Provider:   b.Provider,
		Model:      b.Model,
		APIKey:     b.APIKey,
		BaseURL:    b.BaseURL,
		Timeout:    b.Timeout,
		HTTPProxy:  b.HTTPProxy,
		HTTPSProxy: b.HTTPSProxy,
		Limiter:    limiter,
	}
}

func (c Config) timeout(def time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return def
}
