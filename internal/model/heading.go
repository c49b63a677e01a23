package model

import "strings"

// HeadingCandidate is one outline entry produced by the upstream outline extractor
type HeadingCandidate struct {
	Document   string `json:"document"`              // Document id (outline file stem)
	Text       string `json:"text"`                  // Heading text as extracted
	Page       *int   `json:"page,omitempty"`        // Page as reported by the outline (preferred)
	PageNumber *int   `json:"page_number,omitempty"` // Alternate page field used by some outline revisions
	Level      string `json:"level,omitempty"`       // Outline level (H1, H2, ...), informational
	Order      int    `json:"-"`                     // Discovery index inside the document
}

// ResolvedPage returns the heading's page, preferring "page" over "page_number".
// The second return value is false when neither field is present.
func (h HeadingCandidate) ResolvedPage() (int, bool) {
	if h.Page != nil {
		return *h.Page, true
	}
	if h.PageNumber != nil {
		return *h.PageNumber, true
	}
	return 0, false
}

// ScoredHeading is a candidate that survived both retrieval stages
type ScoredHeading struct {
	HeadingCandidate

	Recall float64 `json:"recall"` // Stage-1 cosine similarity
	Score  float64 `json:"score"`  // Final stage-2 rerank score
}

// Query is the persona/task pair every heading is scored against
type Query struct {
	Persona string `json:"persona"`
	Task    string `json:"job_to_be_done"`
}

// Text returns the single query string used for scoring
func (q Query) Text() string {
	return q.Persona + " " + q.Task
}

// IsEmpty reports whether both persona and task are blank
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Persona) == "" && strings.TrimSpace(q.Task) == ""
}

// RankedSection is a heading after global ordering
type RankedSection struct {
	Document       string  `json:"document"`
	SectionTitle   string  `json:"section_title"`
	ImportanceRank int     `json:"importance_rank"`
	PageNumber     int     `json:"page_number"` // 1-based
	Score          float64 `json:"-"`
}

// BodySpan is the text between a heading and its in-document successor
type BodySpan struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"` // 1-based, same convention as RankedSection
}

// SourceDocument is an entry of the input spec's document list
type SourceDocument struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
}
