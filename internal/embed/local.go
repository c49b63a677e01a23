package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const localDimensions = 512

// LocalEmbedder is an offline feature-hashing embedder over word unigrams
// and bigrams. It needs no model files and is deterministic.
type LocalEmbedder struct {
	model string
}

// NewLocalEmbedder creates a hashing embedder
func NewLocalEmbedder(model string) *LocalEmbedder {
	if model == "" {
		model = "local-hash"
	}
	return &LocalEmbedder{model: model}
}

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = hashVector(tokenize(t))
	}
	return vectors, nil
}

func (e *LocalEmbedder) ModelName() string { return "local:" + e.model }

func (e *LocalEmbedder) Close() error { return nil }

// LocalReranker scores pairs by query-term coverage plus hashed cosine.
// Scores are log-odds shaped so they read like cross-encoder logits.
type LocalReranker struct {
	model string
}

// NewLocalReranker creates a lexical reranker
func NewLocalReranker(model string) *LocalReranker {
	if model == "" {
		model = "local-lexical"
	}
	return &LocalReranker{model: model}
}

func (r *LocalReranker) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	qTokens := tokenize(query)
	qVec := hashVector(qTokens)
	qSet := make(map[string]bool, len(qTokens))
	for _, t := range qTokens {
		qSet[t] = true
	}

	scores := make([]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tTokens := tokenize(text)
		if len(tTokens) == 0 || len(qSet) == 0 {
			scores[i] = logit(0)
			continue
		}
		hits := 0
		for _, t := range tTokens {
			if qSet[t] {
				hits++
			}
		}
		precision := float64(hits) / float64(len(tTokens))
		cos := cosine32(qVec, hashVector(tTokens))
		scores[i] = logit(0.5*precision + 0.5*cos)
	}
	return scores, nil
}

func (r *LocalReranker) ModelName() string { return "local:" + r.model }

func (r *LocalReranker) Close() error { return nil }

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hashVector(tokens []string) []float32 {
	v := make([]float32, localDimensions)
	add := func(feature string, weight float32) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(feature))
		sum := h.Sum32()
		// Top bit picks the sign to reduce collision bias
		if sum&(1<<31) != 0 {
			weight = -weight
		}
		v[sum%localDimensions] += weight
	}
	for i, t := range tokens {
		add(t, 1)
		if i > 0 {
			add(tokens[i-1]+" "+t, 0.5)
		}
	}
	return v
}

func cosine32(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func logit(p float64) float64 {
	const eps = 1e-4
	p = math.Min(math.Max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}
