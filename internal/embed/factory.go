package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/headrank/internal/cache"
	"github.com/ppiankov/headrank/internal/model"
	"github.com/ppiankov/headrank/internal/worker"
)

// Backend bundles the two model stages of a run
type Backend struct {
	Embedder Embedder
	Reranker Reranker
}

// Close releases both stages
func (b *Backend) Close() error {
	var errs []error
	if b.Embedder != nil {
		errs = append(errs, b.Embedder.Close())
	}
	if b.Reranker != nil {
		errs = append(errs, b.Reranker.Close())
	}
	return errors.Join(errs...)
}

// NewEmbedder creates an embedder based on configuration
func NewEmbedder(ctx context.Context, cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg)
	case "gemini", "google":
		return NewGeminiEmbedder(ctx, cfg)
	case "tei":
		return NewTEIEmbedder(cfg), nil
	case "local", "":
		return NewLocalEmbedder(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama, gemini, tei, local)", cfg.Provider)
	}
}

// NewReranker creates a cross-encoder reranker based on configuration
func NewReranker(cfg Config) (Reranker, error) {
	switch strings.ToLower(cfg.Provider) {
	case "tei":
		return NewTEIReranker(cfg), nil
	case "local", "":
		return NewLocalReranker(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown rerank provider: %s (supported: tei, local)", cfg.Provider)
	}
}

// Open builds the embedding and rerank backends for a process. Remote
// backends share one per-host limiter. The caller must Close the result.
func Open(ctx context.Context, cfg *model.Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	embedder, err := NewEmbedder(ctx, ConfigFromModel(cfg.Embedding, limiter))
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		embedder = NewCachedEmbedder(embedder, c, 0, log)
		log.Debug("embedding cache enabled", "dir", cfg.Cache.Dir)
	}

	reranker, err := NewReranker(ConfigFromModel(cfg.Rerank, limiter))
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	log.Debug("model backends ready",
		"embedder", embedder.ModelName(),
		"reranker", reranker.ModelName())
	return &Backend{Embedder: embedder, Reranker: reranker}, nil
}
