package geometry

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

const (
	// US Letter; used when no MediaBox is found
	defaultPageTop = 792.0

	// Glyphs whose baselines differ by at most this many points share a line
	baselineTolerance = 1.0

	// Horizontal gap, relative to font size, that reads as a word break
	spaceGapRatio = 0.2
)

// PDFOpener opens PDFs with github.com/ledongthuc/pdf
type PDFOpener struct{}

// Open opens the file at path. The returned document must be closed.
func (PDFOpener) Open(path string) (doc Document, err error) {
	// The reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("open %s: malformed pdf: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &pdfDocument{
		path:   path,
		file:   f,
		reader: reader,
		pages:  make(map[int][]Line),
	}, nil
}

type pdfDocument struct {
	path   string
	file   *os.File
	reader *pdf.Reader

	mu    sync.Mutex
	pages map[int][]Line
}

func (d *pdfDocument) PageCount() int {
	return d.reader.NumPage()
}

// Lines builds and memoizes the lines of a page
func (d *pdfDocument) Lines(pageIndex int) ([]Line, error) {
	if pageIndex < 0 || pageIndex >= d.PageCount() {
		return nil, fmt.Errorf("%s: page index %d out of range [0, %d)", d.path, pageIndex, d.PageCount())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if lines, ok := d.pages[pageIndex]; ok {
		return lines, nil
	}

	lines, err := extractLines(d.reader.Page(pageIndex + 1))
	if err != nil {
		return nil, fmt.Errorf("%s page %d: %w", d.path, pageIndex+1, err)
	}
	d.pages[pageIndex] = lines
	return lines, nil
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}

func extractLines(page pdf.Page) (lines []Line, err error) {
	if page.V.IsNull() {
		return nil, nil
	}

	// Content interprets the page stream and panics on operators it cannot parse
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	return buildLines(page.Content().Text, pageTop(page)), nil
}

// buildLines groups glyph runs into lines by baseline
func buildLines(glyphs []pdf.Text, top float64) []Line {
	runs := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			runs = append(runs, g)
		}
	}
	// Higher baseline first; PDF user space grows upward
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Y > runs[j].Y })

	var lines []Line
	for start := 0; start < len(runs); {
		baseline := runs[start].Y
		end := start + 1
		for end < len(runs) && baseline-runs[end].Y <= baselineTolerance {
			end++
		}

		row := runs[start:end]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		size := 0.0
		for _, g := range row {
			size = math.Max(size, g.FontSize)
		}

		if text := strings.TrimSpace(joinRow(row)); text != "" {
			lines = append(lines, Line{
				Text:   text,
				Top:    top - (baseline + size),
				Bottom: top - baseline,
			})
		}
		start = end
	}
	return lines
}

// joinRow concatenates glyphs, inserting a space where a visible gap separates them.
// Gaps are only measurable when the font carries glyph widths.
func joinRow(row []pdf.Text) string {
	var b strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			gap := g.X - (prev.X + prev.W)
			if prev.W > 0 && gap > spaceGapRatio*math.Max(g.FontSize, 1) &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}

// pageTop returns the upper edge of the page's MediaBox, which may be inherited
func pageTop(page pdf.Page) float64 {
	v := page.V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return math.Max(box.Index(1).Float64(), box.Index(3).Float64())
		}
		v = v.Key("Parent")
	}
	return defaultPageTop
}
