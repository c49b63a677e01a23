package model

import "fmt"

// InputError reports a malformed or missing required input. It aborts the run.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("input error: %s", e.Field)
	}
	return fmt.Sprintf("input error: %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ScoringError reports an unavailable or misbehaving embedding/rerank backend.
// There is no fallback ranking, so it aborts the run.
type ScoringError struct {
	Stage string // "embed" or "rerank"
	Err   error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring error (%s): %v", e.Stage, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// PageOutOfRangeError is returned when a 0-based page index falls outside the document.
// Callers exclude the heading from extraction instead of aborting.
type PageOutOfRangeError struct {
	PageIndex int
	PageCount int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page index %d out of range [0, %d)", e.PageIndex, e.PageCount)
}
