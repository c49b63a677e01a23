package input

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/headrank/internal/model"
)

// outlineFile is one document's outline as written by the outline extractor
type outlineFile struct {
	Title   string                   `json:"title"`
	Outline []model.HeadingCandidate `json:"outline"`
}

// LoadOutlines reads every <stem>.json in dir and returns headings keyed by stem.
// An unreadable directory is an *model.InputError; malformed files are logged and skipped.
func LoadOutlines(dir string, log *slog.Logger) (map[string][]model.HeadingCandidate, error) {
	if log == nil {
		log = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &model.InputError{Field: "outline directory", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	outlines := make(map[string][]model.HeadingCandidate, len(names))
	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		headings, err := readOutline(filepath.Join(dir, name))
		if err != nil {
			log.Warn("skipping malformed outline", "file", name, "error", err)
			continue
		}
		for i := range headings {
			headings[i].Document = stem
			headings[i].Order = i
		}
		outlines[stem] = headings
	}
	return outlines, nil
}

func readOutline(path string) ([]model.HeadingCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f outlineFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return f.Outline, nil
}
