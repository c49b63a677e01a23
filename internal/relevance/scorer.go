package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/ppiankov/headrank/internal/embed"
	"github.com/ppiankov/headrank/internal/model"
)

// Options tune the two retrieval stages
type Options struct {
	// TopK is the number of stage-1 survivors sent to the reranker, across all documents
	TopK int

	// Threshold, when set, excludes candidates whose stage-1 cosine is below it
	Threshold *float64
}

// Scorer ranks heading candidates against a query in two stages:
// bi-encoder cosine recall over every candidate, then cross-encoder rerank of the global top-K.
type Scorer struct {
	embedder embed.Embedder
	reranker embed.Reranker
	opts     Options
	log      *slog.Logger
}

// NewScorer creates a new scorer
func NewScorer(embedder embed.Embedder, reranker embed.Reranker, opts Options, log *slog.Logger) *Scorer {
	if opts.TopK <= 0 {
		opts.TopK = model.DefaultTopK
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{embedder: embedder, reranker: reranker, opts: opts, log: log}
}

// candidate is one heading with its stage-1 state
type candidate struct {
	heading  model.HeadingCandidate
	recall   float64
	eligible bool
}

// Score returns, per document, the candidates that survived both stages,
// sorted by rerank score descending. Documents with no survivors are omitted.
func (s *Scorer) Score(ctx context.Context, q model.Query, byDocument map[string][]model.HeadingCandidate) (map[string][]model.ScoredHeading, error) {
	if q.IsEmpty() {
		return nil, &model.InputError{Field: "persona/job_to_be_done", Err: errors.New("persona and task are both empty")}
	}

	docs := make([]string, 0, len(byDocument))
	for doc := range byDocument {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	var cands []candidate
	for _, doc := range docs {
		for _, h := range byDocument[doc] {
			h.Document = doc
			cands = append(cands, candidate{heading: h})
		}
	}

	result := make(map[string][]model.ScoredHeading)
	if len(cands) == 0 {
		return result, nil
	}

	queryText := q.Text()
	if err := s.recall(ctx, queryText, cands); err != nil {
		return nil, err
	}

	top := s.selectTopK(cands)
	s.log.Debug("stage-1 recall done", "candidates", len(cands), "top_k", len(top))
	if len(top) == 0 {
		return result, nil
	}

	scored, err := s.rerank(ctx, queryText, top)
	if err != nil {
		return nil, err
	}

	for _, sh := range scored {
		result[sh.Document] = append(result[sh.Document], sh)
	}
	return result, nil
}

// recall embeds the query with every candidate in one call and fills the cosine scores
func (s *Scorer) recall(ctx context.Context, queryText string, cands []candidate) error {
	texts := make([]string, 0, len(cands)+1)
	texts = append(texts, queryText)
	for _, c := range cands {
		texts = append(texts, c.heading.Text)
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return &model.ScoringError{Stage: "embed", Err: err}
	}
	if len(vectors) != len(texts) {
		return &model.ScoringError{Stage: "embed", Err: fmt.Errorf("got %d vectors for %d texts", len(vectors), len(texts))}
	}

	queryVec := vectors[0]
	queryNorm, err := norm(queryVec)
	if err != nil {
		return &model.ScoringError{Stage: "embed", Err: fmt.Errorf("query vector: %w", err)}
	}

	for i := range cands {
		v := vectors[i+1]
		if len(v) != len(queryVec) {
			return &model.ScoringError{Stage: "embed", Err: fmt.Errorf("vector %d has dimension %d, query has %d", i, len(v), len(queryVec))}
		}
		n, err := norm(v)
		if err != nil {
			return &model.ScoringError{Stage: "embed", Err: fmt.Errorf("vector %d: %w", i, err)}
		}
		// Zero-norm vectors score 0 and never reach the reranker
		if n == 0 || queryNorm == 0 {
			continue
		}
		cands[i].recall = dot(queryVec, v) / (queryNorm * n)
		cands[i].eligible = s.opts.Threshold == nil || cands[i].recall >= *s.opts.Threshold
	}
	return nil
}

// selectTopK keeps the K best eligible candidates across all documents.
// Ties keep discovery order.
func (s *Scorer) selectTopK(cands []candidate) []candidate {
	eligible := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.eligible {
			eligible = append(eligible, c)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].recall > eligible[j].recall
	})
	if len(eligible) > s.opts.TopK {
		eligible = eligible[:s.opts.TopK]
	}
	return eligible
}

// rerank scores the top-K in one call and sorts by the new score
func (s *Scorer) rerank(ctx context.Context, queryText string, top []candidate) ([]model.ScoredHeading, error) {
	texts := make([]string, len(top))
	for i, c := range top {
		texts[i] = c.heading.Text
	}

	scores, err := s.reranker.Rerank(ctx, queryText, texts)
	if err != nil {
		return nil, &model.ScoringError{Stage: "rerank", Err: err}
	}
	if len(scores) != len(texts) {
		return nil, &model.ScoringError{Stage: "rerank", Err: fmt.Errorf("got %d scores for %d pairs", len(scores), len(texts))}
	}

	out := make([]model.ScoredHeading, len(top))
	for i, c := range top {
		if math.IsNaN(scores[i]) || math.IsInf(scores[i], 0) {
			return nil, &model.ScoringError{Stage: "rerank", Err: fmt.Errorf("score %d is not finite", i)}
		}
		out[i] = model.ScoredHeading{HeadingCandidate: c.heading, Recall: c.recall, Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) (float64, error) {
	var sum float64
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return 0, errors.New("vector contains non-finite values")
		}
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum), nil
}
