package embed

import (
	"context"
	"fmt"
	"time"
)

// Text Embeddings Inference serves both /embed and /rerank
const defaultTEIURL = "http://localhost:8080"

// TEIEmbedder embeds texts with a Text Embeddings Inference server
type TEIEmbedder struct {
	client *jsonClient
	model  string
}

type teiEmbedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// NewTEIEmbedder creates a new TEI embedder. The model is fixed server side;
// the configured name only keys the cache.
func NewTEIEmbedder(cfg Config) *TEIEmbedder {
	return &TEIEmbedder{
		client: newJSONClient(cfg, defaultTEIURL, 60*time.Second),
		model:  cfg.Model,
	}
}

func (e *TEIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var vectors [][]float32
	if err := e.client.post(ctx, "/embed", teiEmbedRequest{Inputs: texts, Truncate: true}, &vectors); err != nil {
		return nil, fmt.Errorf("tei embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("tei embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *TEIEmbedder) ModelName() string { return e.model }

func (e *TEIEmbedder) Close() error { return nil }

// TEIReranker scores pairs with a cross-encoder served by TEI
type TEIReranker struct {
	client *jsonClient
	model  string
}

type teiRerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type teiRerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewTEIReranker creates a new TEI reranker
func NewTEIReranker(cfg Config) *TEIReranker {
	return &TEIReranker{
		client: newJSONClient(cfg, defaultTEIURL, 60*time.Second),
		model:  cfg.Model,
	}
}

// Rerank returns raw logits in input order. TEI answers sorted by score,
// so results are placed back by index.
func (r *TEIReranker) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}
	var results []teiRerankResult
	req := teiRerankRequest{Query: query, Texts: texts, RawScores: true, Truncate: true}
	if err := r.client.post(ctx, "/rerank", req, &results); err != nil {
		return nil, fmt.Errorf("tei rerank: %w", err)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf("tei rerank: got %d scores for %d texts", len(results), len(texts))
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(texts) || seen[res.Index] {
			return nil, fmt.Errorf("tei rerank: invalid result index %d", res.Index)
		}
		seen[res.Index] = true
		scores[res.Index] = res.Score
	}
	return scores, nil
}

func (r *TEIReranker) ModelName() string { return r.model }

func (r *TEIReranker) Close() error { return nil }
