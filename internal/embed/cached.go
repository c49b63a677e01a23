package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/headrank/internal/cache"
)

// CachedEmbedder serves vectors from a cache and sends only misses to the
// wrapped embedder, still in a single batched call.
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedEmbedder wraps next with c
func NewCachedEmbedder(next Embedder, c cache.Cache, ttl time.Duration, log *slog.Logger) *CachedEmbedder {
	if log == nil {
		log = slog.Default()
	}
	return &CachedEmbedder{next: next, cache: c, ttl: ttl, log: log}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missTexts []string
	pending := make(map[string][]int)

	for i, t := range texts {
		key := cache.VectorKey(e.next.ModelName(), t)
		if raw, ok := e.cache.Get(key); ok {
			if v, err := cache.DecodeVector(raw); err == nil && len(v) > 0 {
				vectors[i] = v
				continue
			}
		}
		// Duplicate texts inside one batch are embedded once
		if idx, ok := pending[t]; ok {
			pending[t] = append(idx, i)
			continue
		}
		pending[t] = []int{i}
		missTexts = append(missTexts, t)
	}

	e.log.Debug("embedding cache lookup", "texts", len(texts), "misses", len(missTexts))
	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := e.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	for j, t := range missTexts {
		for _, i := range pending[t] {
			vectors[i] = fresh[j]
		}
		if err := e.cache.Set(cache.VectorKey(e.next.ModelName(), t), cache.EncodeVector(fresh[j]), e.ttl); err != nil {
			e.log.Warn("embedding cache write failed", "error", err)
		}
	}
	return vectors, nil
}

func (e *CachedEmbedder) ModelName() string { return e.next.ModelName() }

func (e *CachedEmbedder) Close() error {
	if sc, ok := e.cache.(interface{ Stats() cache.Stats }); ok {
		st := sc.Stats()
		e.log.Debug("embedding cache stats",
			"memory_hits", st.MemoryHits,
			"disk_hits", st.DiskHits,
			"misses", st.Misses)
	}
	return e.next.Close()
}
