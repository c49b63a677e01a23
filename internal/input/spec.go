// Package input loads the files a ranking run consumes: the persona/task
// spec, the outline directory and, for batch runs, collection directories.
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/headrank/internal/model"
)

// Spec is a parsed input spec
type Spec struct {
	Query     model.Query
	Documents []model.SourceDocument
}

// rawSpec mirrors the input file. persona and job_to_be_done are objects
// ({"role": ...} / {"task": ...}); plain strings are accepted too.
type rawSpec struct {
	Persona     *field                 `json:"persona"`
	JobToBeDone *field                 `json:"job_to_be_done"`
	Documents   []model.SourceDocument `json:"documents"`
}

type field struct {
	value string
}

func (f *field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &f.value)
	}
	var obj struct {
		Role string `json:"role"`
		Task string `json:"task"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	f.value = obj.Role
	if f.value == "" {
		f.value = obj.Task
	}
	return nil
}

// LoadSpec reads and validates the input spec. Every failure is an *model.InputError.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.InputError{Field: "input spec", Err: err}
	}
	return ParseSpec(data)
}

// ParseSpec parses spec JSON
func ParseSpec(data []byte) (*Spec, error) {
	var raw rawSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &model.InputError{Field: "input spec", Err: fmt.Errorf("parse: %w", err)}
	}
	if raw.Persona == nil {
		return nil, &model.InputError{Field: "persona", Err: errors.New("missing")}
	}
	if raw.JobToBeDone == nil {
		return nil, &model.InputError{Field: "job_to_be_done", Err: errors.New("missing")}
	}

	return &Spec{
		Query: model.Query{
			Persona: raw.Persona.value,
			Task:    raw.JobToBeDone.value,
		},
		Documents: raw.Documents,
	}, nil
}
