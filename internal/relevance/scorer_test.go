package relevance

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ppiankov/headrank/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns fixed vectors by text; unknown texts get the zero vector
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
	err     error
	trim    bool // drop the last vector to simulate a malformed response
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0}
		}
	}
	if f.trim {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake" }
func (f *fakeEmbedder) Close() error      { return nil }

// fakeReranker scores by text, default 0
type fakeReranker struct {
	scores map[string]float64
	calls  int
	seen   []string
	err    error
	short  bool
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, texts []string) ([]float64, error) {
	f.calls++
	f.seen = append([]string(nil), texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = f.scores[t]
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeReranker) ModelName() string { return "fake" }
func (f *fakeReranker) Close() error      { return nil }

const queryText = "Travel Planner Plan a trip"

var query = model.Query{Persona: "Travel Planner", Task: "Plan a trip"}

func headings(texts ...string) []model.HeadingCandidate {
	out := make([]model.HeadingCandidate, len(texts))
	for i, t := range texts {
		out[i] = model.HeadingCandidate{Text: t, Order: i}
	}
	return out
}

func texts(sh []model.ScoredHeading) []string {
	out := make([]string, len(sh))
	for i, h := range sh {
		out[i] = h.Text
	}
	return out
}

func TestScorer_EmptyQuery(t *testing.T) {
	emb := &fakeEmbedder{}
	s := NewScorer(emb, &fakeReranker{}, Options{}, nil)

	_, err := s.Score(context.Background(), model.Query{Persona: " ", Task: ""}, map[string][]model.HeadingCandidate{"a": headings("x")})

	var inputErr *model.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Zero(t, emb.calls)
}

func TestScorer_NoCandidates(t *testing.T) {
	emb := &fakeEmbedder{}
	rr := &fakeReranker{}
	s := NewScorer(emb, rr, Options{}, nil)

	got, err := s.Score(context.Background(), query, map[string][]model.HeadingCandidate{"a": nil})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, emb.calls)
	assert.Zero(t, rr.calls)
}

func TestScorer_GlobalTopKAndRerankOrder(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		queryText:     {1, 0},
		"Beaches":     {1, 0},     // cos 1
		"Nightlife":   {0.8, 0.6}, // cos 0.8
		"Packing":     {0.6, 0.8}, // cos 0.6
		"History":     {0, 1},     // cos 0
		"Restaurants": {0.9, 0.1}, // cos ~0.994
	}}
	rr := &fakeReranker{scores: map[string]float64{
		"Beaches":     1.0,
		"Restaurants": 5.0,
		"Nightlife":   3.0,
	}}
	s := NewScorer(emb, rr, Options{TopK: 3}, nil)

	got, err := s.Score(context.Background(), query, map[string][]model.HeadingCandidate{
		"south-of-france-cities": headings("History", "Nightlife"),
		"south-of-france-food":   headings("Restaurants"),
		"south-of-france-tips":   headings("Packing", "Beaches"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, emb.calls, "all texts embedded in one batch")
	assert.Equal(t, 1, rr.calls, "top-K reranked in one batch")
	assert.Equal(t, []string{"Beaches", "Restaurants", "Nightlife"}, rr.seen)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"Nightlife"}, texts(got["south-of-france-cities"]))
	assert.Equal(t, []string{"Restaurants"}, texts(got["south-of-france-food"]))
	assert.Equal(t, []string{"Beaches"}, texts(got["south-of-france-tips"]))

	food := got["south-of-france-food"][0]
	assert.Equal(t, 5.0, food.Score)
	assert.InDelta(t, 0.9/math.Sqrt(0.82), food.Recall, 1e-6)
	assert.Equal(t, "south-of-france-food", food.Document)
}

func TestScorer_OmitsDocumentsWithoutSurvivors(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		queryText: {1, 0},
		"Good":    {1, 0},
		"Bad":     {0, 1},
	}}
	s := NewScorer(emb, &fakeReranker{}, Options{TopK: 1}, nil)

	got, err := s.Score(context.Background(), query, map[string][]model.HeadingCandidate{
		"a": headings("Good"),
		"b": headings("Bad"),
	})
	require.NoError(t, err)
	assert.Contains(t, got, "a")
	assert.NotContains(t, got, "b")
}

func TestScorer_FewerThanKAllPass(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		queryText: {1, 0},
		"One":     {1, 1},
		"Two":     {1, -1},
	}}
	s := NewScorer(emb, &fakeReranker{}, Options{}, nil)

	got, err := s.Score(context.Background(), query, map[string][]model.HeadingCandidate{"a": headings("One", "Two")})
	require.NoError(t, err)
	// Equal rerank scores keep stage-1 order, which keeps discovery order on equal cosine
	assert.Equal(t, []string{"One", "Two"}, texts(got["a"]))
}

func TestScorer_ZeroNormExcluded(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		queryText: {1, 0},
		"Real":    {1, 0},
	}}
	rr := &fakeReranker{}
	s := NewScorer(emb, rr, Options{TopK: 5}, nil)

	got, err := s.Score(context.Background(), query, map[string][]model.HeadingCandidate{"a": headings("", "Real")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Real"}, rr.seen)
	assert.Equal(t, []string{"Real"}, texts(got["a"]))
}

func TestScorer_Threshold(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		queryText: {1, 0},
		"Close":   {1, 0.1},
		"Far":     {0.1, 1},
	}}
	rr := &fakeReranker{}
	threshold := 0.4
	s := NewScorer(emb, rr, Options{Threshold: &threshold}, nil)

	_, err := s.Score(context.Background(), query, map[string][]model.HeadingCandidate{"a": headings("Close", "Far")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Close"}, rr.seen)
}

func TestScorer_ScoringErrors(t *testing.T) {
	cands := map[string][]model.HeadingCandidate{"a": headings("x", "y")}
	vectors := map[string][]float32{queryText: {1, 0}, "x": {1, 0}, "y": {0.5, 0.5}}

	tests := []struct {
		name  string
		emb   *fakeEmbedder
		rr    *fakeReranker
		stage string
	}{
		{"embed failure", &fakeEmbedder{err: errors.New("boom")}, &fakeReranker{}, "embed"},
		{"vector count", &fakeEmbedder{vectors: vectors, trim: true}, &fakeReranker{}, "embed"},
		{"dimension mismatch", &fakeEmbedder{vectors: map[string][]float32{queryText: {1, 0}, "x": {1, 0, 0}}}, &fakeReranker{}, "embed"},
		{"nan vector", &fakeEmbedder{vectors: map[string][]float32{queryText: {1, 0}, "x": {float32(math.NaN()), 0}}}, &fakeReranker{}, "embed"},
		{"rerank failure", &fakeEmbedder{vectors: vectors}, &fakeReranker{err: errors.New("down")}, "rerank"},
		{"score count", &fakeEmbedder{vectors: vectors}, &fakeReranker{short: true}, "rerank"},
		{"nan score", &fakeEmbedder{vectors: vectors}, &fakeReranker{scores: map[string]float64{"x": math.NaN()}}, "rerank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(tt.emb, tt.rr, Options{}, nil)
			_, err := s.Score(context.Background(), query, cands)

			var scoringErr *model.ScoringError
			require.ErrorAs(t, err, &scoringErr)
			assert.Equal(t, tt.stage, scoringErr.Stage)
		})
	}
}
