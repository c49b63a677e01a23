package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/headrank/internal/model"
)

// Renderer writes run output as JSON, Markdown and a terminal summary
type Renderer struct {
	summary io.Writer
}

// NewRenderer creates a renderer that prints summaries to stderr
func NewRenderer() *Renderer {
	return &Renderer{summary: os.Stderr}
}

// EncodeJSON returns the output as indented JSON without HTML escaping
func EncodeJSON(out *model.Output) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderJSON writes the output JSON, creating parent directories
func (r *Renderer) RenderJSON(out *model.Output, path string) error {
	data, err := EncodeJSON(out)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	return writeFile(path, data)
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(out *model.Output, path string) error {
	return writeFile(path, []byte(Markdown(out)))
}

// Markdown formats the output as a Markdown report
func Markdown(out *model.Output) string {
	var b strings.Builder
	meta := out.Metadata

	b.WriteString("# Heading Relevance Report\n\n")
	fmt.Fprintf(&b, "- **Persona:** %s\n", meta.Persona)
	fmt.Fprintf(&b, "- **Job to be done:** %s\n", meta.JobToBeDone)
	fmt.Fprintf(&b, "- **Documents:** %d\n", len(meta.InputDocuments))
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", meta.ProcessingTimestamp)

	b.WriteString("## Extracted Sections\n\n")
	if len(out.ExtractedSections) == 0 {
		b.WriteString("_No relevant sections._\n\n")
	} else {
		b.WriteString("| Rank | Section | Document | Page |\n")
		b.WriteString("|---:|---|---|---:|\n")
		for _, s := range out.ExtractedSections {
			fmt.Fprintf(&b, "| %d | %s | %s | %d |\n",
				s.ImportanceRank, escapeCell(s.SectionTitle), escapeCell(s.Document), s.PageNumber)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Subsection Analysis\n\n")
	if len(out.SubsectionAnalysis) == 0 {
		b.WriteString("_No extracted text._\n")
	}
	for i, span := range out.SubsectionAnalysis {
		fmt.Fprintf(&b, "### %d. %s, page %d\n\n", i+1, span.Document, span.PageNumber)
		if span.RefinedText == "" {
			b.WriteString("_(empty)_\n\n")
			continue
		}
		b.WriteString(span.RefinedText)
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderSummary prints a short overview of the run
func (r *Renderer) RenderSummary(out *model.Output) {
	fmt.Fprintf(r.summary, "Ranked %d sections across %d documents, extracted %d spans\n",
		len(out.ExtractedSections), len(out.Metadata.InputDocuments), len(out.SubsectionAnalysis))

	for i, s := range out.ExtractedSections {
		if i >= 5 {
			fmt.Fprintf(r.summary, "  ... and %d more\n", len(out.ExtractedSections)-5)
			break
		}
		fmt.Fprintf(r.summary, "  %2d. %s (%s, p. %d)\n", s.ImportanceRank, s.SectionTitle, s.Document, s.PageNumber)
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
