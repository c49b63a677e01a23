package model

import "time"

// Output is the complete result of one ranking run
type Output struct {
	Metadata           Metadata        `json:"metadata"`
	ExtractedSections  []RankedSection `json:"extracted_sections"`
	SubsectionAnalysis []BodySpan      `json:"subsection_analysis"`
}

// Metadata describes the inputs of a run
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"` // RFC 3339
}

// NewMetadata builds run metadata stamped with the given time
func NewMetadata(docs []SourceDocument, q Query, at time.Time) Metadata {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	return Metadata{
		InputDocuments:      names,
		Persona:             q.Persona,
		JobToBeDone:         q.Task,
		ProcessingTimestamp: at.Format(time.RFC3339),
	}
}

// Normalize replaces nil slices so they serialize as [] instead of null
func (o *Output) Normalize() {
	if o.Metadata.InputDocuments == nil {
		o.Metadata.InputDocuments = []string{}
	}
	if o.ExtractedSections == nil {
		o.ExtractedSections = []RankedSection{}
	}
	if o.SubsectionAnalysis == nil {
		o.SubsectionAnalysis = []BodySpan{}
	}
}
