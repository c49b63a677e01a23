// Package segment extracts the body text that follows each ranked heading in
// its source PDF, up to the next heading of the same document.
package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ppiankov/headrank/internal/geometry"
	"github.com/ppiankov/headrank/internal/model"
)

// Extractor turns ranked sections into body spans
type Extractor struct {
	opener  geometry.Opener
	locator *geometry.Locator
	log     *slog.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(opener geometry.Opener, locator *geometry.Locator, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	if locator == nil {
		locator = geometry.NewLocator(log)
	}
	return &Extractor{opener: opener, locator: locator, log: log}
}

// placed is a section positioned inside its document
type placed struct {
	rank      int // index into the input slice
	section   model.RankedSection
	pageIndex int
	start     float64
}

// Extract returns one span per section that could be resolved and located,
// in the order of sections. Per-section and per-document failures are
// logged and skipped.
func (e *Extractor) Extract(ctx context.Context, sections []model.RankedSection, pdfDir string) []model.BodySpan {
	spans := make([]model.BodySpan, 0, len(sections))
	if len(sections) == 0 {
		return spans
	}

	resolver, err := NewResolver(pdfDir)
	if err != nil {
		e.log.Warn("no PDFs available for extraction", "dir", pdfDir, "error", err)
		return spans
	}

	groups := make(map[string][]placed)
	for i, sec := range sections {
		path, ok := resolver.Resolve(sec.Document)
		if !ok {
			e.log.Warn("document not found, skipping section", "document", sec.Document, "section", sec.SectionTitle)
			continue
		}
		pageIndex := sec.PageNumber - 1
		if pageIndex < 0 {
			pageIndex = 0
		}
		groups[path] = append(groups[path], placed{rank: i, section: sec, pageIndex: pageIndex})
	}

	paths := make([]string, 0, len(groups))
	for p := range groups {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	byRank := make(map[int]model.BodySpan, len(sections))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			e.log.Warn("extraction cancelled", "error", err)
			break
		}
		e.extractGroup(path, groups[path], byRank)
	}

	for i := range sections {
		if span, ok := byRank[i]; ok {
			spans = append(spans, span)
		}
	}
	return spans
}

// extractGroup handles every section of one document with a single open handle
func (e *Extractor) extractGroup(path string, items []placed, out map[int]model.BodySpan) {
	log := e.log.With("pdf", path)

	doc, err := e.opener.Open(path)
	if err != nil {
		log.Warn("cannot open document, skipping its sections", "sections", len(items), "error", err)
		return
	}
	defer func() {
		if err := doc.Close(); err != nil {
			log.Warn("close document", "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("extraction aborted for document", "panic", fmt.Sprint(r))
		}
	}()

	located := make([]placed, 0, len(items))
	for _, it := range items {
		y, err := e.locator.Locate(doc, it.section.PageNumber, it.section.SectionTitle)
		if err != nil {
			var pageErr *model.PageOutOfRangeError
			if errors.As(err, &pageErr) {
				log.Warn("page out of range, skipping section", "section", it.section.SectionTitle, "error", err)
			} else {
				log.Warn("cannot locate section", "section", it.section.SectionTitle, "error", err)
			}
			continue
		}
		it.start = y
		located = append(located, it)
	}

	// Items arrive in rank order, so the stable sort breaks position ties by rank
	sort.SliceStable(located, func(i, j int) bool {
		if located[i].pageIndex != located[j].pageIndex {
			return located[i].pageIndex < located[j].pageIndex
		}
		return located[i].start < located[j].start
	})

	for i, cur := range located {
		var next *placed
		if i+1 < len(located) {
			next = &located[i+1]
		}
		out[cur.rank] = model.BodySpan{
			Document:    cur.section.Document,
			RefinedText: e.spanText(doc, cur, next, log),
			PageNumber:  cur.section.PageNumber,
		}
	}
}

// spanText collects the lines between cur and its successor
func (e *Extractor) spanText(doc geometry.Document, cur placed, next *placed, log *slog.Logger) string {
	var parts []string
	collect := func(pageIndex int, keep func(geometry.Line) bool) {
		lines, err := doc.Lines(pageIndex)
		if err != nil {
			log.Warn("cannot read page", "page", pageIndex+1, "error", err)
			return
		}
		for _, line := range lines {
			if !keep(line) {
				continue
			}
			if t := strings.TrimSpace(line.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}

	switch {
	case next != nil && next.pageIndex == cur.pageIndex:
		collect(cur.pageIndex, func(l geometry.Line) bool {
			return l.Top >= cur.start && l.Top < next.start
		})
	case next != nil:
		collect(cur.pageIndex, func(l geometry.Line) bool { return l.Top >= cur.start })
		for p := cur.pageIndex + 1; p < next.pageIndex; p++ {
			collect(p, func(geometry.Line) bool { return true })
		}
		collect(next.pageIndex, func(l geometry.Line) bool { return l.Top < next.start })
	default:
		// The last heading of a document never reads past its own page
		collect(cur.pageIndex, func(l geometry.Line) bool { return l.Top >= cur.start })
	}
	return strings.Join(parts, " ")
}
