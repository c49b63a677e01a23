package embed

import (
	"context"
	"fmt"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaEmbedder embeds texts with a local Ollama server
type OllamaEmbedder struct {
	client *jsonClient
	model  string
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates a new Ollama embedder
func NewOllamaEmbedder(cfg Config) (*OllamaEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., all-minilm, nomic-embed-text)")
	}
	// Local models can be slow on first load
	return &OllamaEmbedder{
		client: newJSONClient(cfg, defaultOllamaURL, 60*time.Second),
		model:  cfg.Model,
	}, nil
}

// Embed uses the batched /api/embed endpoint
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var resp ollamaEmbedResponse
	if err := e.client.post(ctx, "/api/embed", ollamaEmbedRequest{Model: e.model, Input: texts}, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Ping checks that the server answers /api/tags
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	if err := e.client.get(ctx, "/api/tags"); err != nil {
		return fmt.Errorf("ollama ping %s: %w", e.client.baseURL, err)
	}
	return nil
}

func (e *OllamaEmbedder) ModelName() string { return e.model }

func (e *OllamaEmbedder) Close() error { return nil }
