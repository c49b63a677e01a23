package rank

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/headrank/internal/model"
)

// Aggregator flattens per-document scores into one globally ranked list
type Aggregator struct {
	byTitle map[string]string
	byStem  map[string]string
	log     *slog.Logger
}

// NewAggregator creates an aggregator that maps document ids to the
// filenames listed in the input spec
func NewAggregator(docs []model.SourceDocument, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	a := &Aggregator{
		byTitle: make(map[string]string, len(docs)),
		byStem:  make(map[string]string, len(docs)),
		log:     log,
	}
	for _, d := range docs {
		if d.Filename == "" {
			continue
		}
		// First listing wins on duplicate titles or stems
		if _, ok := a.byTitle[d.Title]; !ok && d.Title != "" {
			a.byTitle[d.Title] = d.Filename
		}
		stem := strings.TrimSuffix(filepath.Base(d.Filename), filepath.Ext(d.Filename))
		if _, ok := a.byStem[stem]; !ok {
			a.byStem[stem] = d.Filename
		}
	}
	return a
}

// Filename maps a document id (outline file stem) to its PDF filename.
// Unknown ids fall back to "<id>.pdf".
func (a *Aggregator) Filename(docID string) string {
	if f, ok := a.byTitle[docID]; ok {
		return f
	}
	if f, ok := a.byStem[docID]; ok {
		return f
	}
	return docID + ".pdf"
}

// Aggregate assigns dense 1-based importance ranks by descending score.
// Documents are visited in lexicographic order so ties resolve the same way every run.
func (a *Aggregator) Aggregate(scored map[string][]model.ScoredHeading) []model.RankedSection {
	docs := make([]string, 0, len(scored))
	for doc := range scored {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	sections := make([]model.RankedSection, 0)
	for _, doc := range docs {
		filename := a.Filename(doc)
		for _, h := range scored[doc] {
			page, ok := h.ResolvedPage()
			if !ok {
				a.log.Warn("dropping heading without page", "document", doc, "heading", h.Text)
				continue
			}
			sections = append(sections, model.RankedSection{
				Document:     filename,
				SectionTitle: strings.TrimSpace(h.Text),
				PageNumber:   page,
				Score:        h.Score,
			})
		}
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Score > sections[j].Score
	})
	for i := range sections {
		sections[i].ImportanceRank = i + 1
	}
	return sections
}
