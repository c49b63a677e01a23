package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/headrank/internal/embed"
	"github.com/ppiankov/headrank/internal/geometry"
	"github.com/ppiankov/headrank/internal/input"
	"github.com/ppiankov/headrank/internal/model"
	"github.com/ppiankov/headrank/internal/rank"
	"github.com/ppiankov/headrank/internal/relevance"
	"github.com/ppiankov/headrank/internal/segment"
)

// Pipeline orchestrates one ranking run: load inputs, score, rank, extract
type Pipeline struct {
	scorer    *relevance.Scorer
	extractor *segment.Extractor
	renderer  *Renderer
	log       *slog.Logger
	now       func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithOpener overrides how PDFs are opened
func WithOpener(opener geometry.Opener) Option {
	return func(p *Pipeline) {
		p.extractor = segment.NewExtractor(opener, geometry.NewLocator(p.log), p.log)
	}
}

// NewPipeline creates a pipeline around an opened model backend.
// The backend is owned by the caller.
func NewPipeline(cfg *model.Config, backend *embed.Backend, log *slog.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	p := &Pipeline{
		scorer: relevance.NewScorer(backend.Embedder, backend.Reranker, relevance.Options{
			TopK:      cfg.Retrieval.TopK,
			Threshold: cfg.Retrieval.Threshold,
		}, log),
		extractor: segment.NewExtractor(geometry.PDFOpener{}, geometry.NewLocator(log), log),
		renderer:  NewRenderer(),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ranks one collection. InputError and ScoringError abort the run;
// extraction problems only shrink subsection_analysis.
func (p *Pipeline) Run(ctx context.Context, c model.Collection) (*model.Output, error) {
	log := p.log
	if c.Name != "" {
		log = log.With("collection", c.Name)
	}

	// 1. Load the input spec
	spec, err := input.LoadSpec(c.SpecFile)
	if err != nil {
		return nil, err
	}

	// 2. Load outlines
	outlines, err := input.LoadOutlines(c.OutlineDir, log)
	if err != nil {
		return nil, err
	}
	log.Info("inputs loaded", "documents", len(spec.Documents), "outlines", len(outlines))

	// 3. Two-stage scoring
	scored, err := p.scorer.Score(ctx, spec.Query, outlines)
	if err != nil {
		return nil, fmt.Errorf("score headings: %w", err)
	}

	// 4. Global ranking
	sections := rank.NewAggregator(spec.Documents, log).Aggregate(scored)
	log.Info("headings ranked", "sections", len(sections))

	// 5. Body extraction
	spans := p.extractor.Extract(ctx, sections, c.PDFDir)
	log.Info("bodies extracted", "spans", len(spans))

	out := &model.Output{
		Metadata:           model.NewMetadata(spec.Documents, spec.Query, p.now()),
		ExtractedSections:  sections,
		SubsectionAnalysis: spans,
	}
	out.Normalize()
	return out, nil
}

// RenderOutput writes the run output to the requested files and prints a summary
func (p *Pipeline) RenderOutput(out *model.Output, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(out, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			p.log.Info("wrote JSON", "path", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(out, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			p.log.Info("wrote Markdown", "path", mdPath)
		}
	}

	p.renderer.RenderSummary(out)
	return nil
}
