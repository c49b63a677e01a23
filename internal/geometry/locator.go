package geometry

import (
	"log/slog"
	"strings"

	"github.com/ppiankov/headrank/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Headings wrapped by the layout are searched across this many lines
const maxHeadingLines = 3

// Locator finds the vertical position of a heading on a page
type Locator struct {
	log *slog.Logger
}

// NewLocator creates a new locator
func NewLocator(log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	return &Locator{log: log}
}

// Locate returns the lower edge of the first line on the page that contains
// headingText. pageNumber is 1-based; values below 1 address the first page.
//
// A heading that cannot be found returns 0 (top of page) and no error, so
// extraction over-includes instead of failing. A page outside the document
// returns *model.PageOutOfRangeError.
func (l *Locator) Locate(doc Document, pageNumber int, headingText string) (float64, error) {
	pageIndex := pageNumber - 1
	if pageIndex < 0 {
		pageIndex = 0
	}
	if count := doc.PageCount(); pageIndex >= count {
		return 0, &model.PageOutOfRangeError{PageIndex: pageIndex, PageCount: count}
	}

	lines, err := doc.Lines(pageIndex)
	if err != nil {
		return 0, err
	}

	if y, ok := findHeading(lines, headingText); ok {
		return y, nil
	}

	l.log.Debug("heading not found on page, using top of page",
		"page", pageIndex+1, "heading", headingText)
	return 0, nil
}

func findHeading(lines []Line, heading string) (float64, bool) {
	if strings.TrimSpace(heading) == "" {
		return 0, false
	}

	for _, line := range lines {
		if strings.Contains(line.Text, heading) {
			return line.Bottom, true
		}
	}

	want := Normalize(heading)
	normalized := make([]string, len(lines))
	for i, line := range lines {
		normalized[i] = Normalize(line.Text)
		if strings.Contains(normalized[i], want) {
			return line.Bottom, true
		}
	}

	for i := range lines {
		joined := normalized[i]
		for n := 2; n <= maxHeadingLines && i+n <= len(lines); n++ {
			joined += " " + normalized[i+n-1]
			if strings.Contains(joined, want) {
				return lines[i+n-1].Bottom, true
			}
		}
	}
	return 0, false
}

// Normalize folds text for tolerant heading comparison: compatibility
// decomposition (ligatures), case folding, soft hyphen removal and
// whitespace collapsing.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\u00ad", "")
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
