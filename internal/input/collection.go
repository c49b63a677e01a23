package input

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ppiankov/headrank/internal/model"
)

// Layout names the files inside a collection directory
type Layout struct {
	SpecName   string
	PDFDir     string
	OutlineDir string
	OutputName string
}

// DefaultLayout matches the challenge collection layout
func DefaultLayout() Layout {
	return Layout{
		SpecName:   "challenge1b_input.json",
		PDFDir:     "PDFs",
		OutlineDir: "outlines",
		OutputName: "challenge1b_output.json",
	}
}

// DiscoverCollections returns every direct subdirectory of root that holds
// a spec file, sorted by name
func DiscoverCollections(root string, layout Layout) ([]model.Collection, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &model.InputError{Field: "collections root", Err: err}
	}

	var collections []model.Collection
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		spec := filepath.Join(dir, layout.SpecName)
		if _, err := os.Stat(spec); err != nil {
			continue
		}
		collections = append(collections, model.Collection{
			Name:       e.Name(),
			SpecFile:   spec,
			PDFDir:     filepath.Join(dir, layout.PDFDir),
			OutlineDir: filepath.Join(dir, layout.OutlineDir),
			OutputFile: filepath.Join(dir, layout.OutputName),
		})
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name < collections[j].Name
	})

	if len(collections) == 0 {
		return nil, &model.InputError{Field: "collections root", Err: fmt.Errorf("no %s found under %s", layout.SpecName, root)}
	}
	return collections, nil
}
