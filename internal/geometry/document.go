// Package geometry answers positional questions about PDF pages: which text
// lines a page holds and where a heading sits vertically.
//
// All coordinates use a top-left origin; larger values are lower on the page.
package geometry

// Line is one visual text line of a page
type Line struct {
	Text   string
	Top    float64
	Bottom float64
}

// Document is an open, read-only handle on a paged document
type Document interface {
	// PageCount returns the number of pages
	PageCount() int

	// Lines returns the text lines of a 0-based page, top to bottom
	Lines(pageIndex int) ([]Line, error)

	// Close releases the underlying file
	Close() error
}

// Opener opens documents by path
type Opener interface {
	Open(path string) (Document, error)
}
