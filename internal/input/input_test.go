package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/headrank/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec([]byte(`{
		"challenge_info": {"challenge_id": "round_1b_002"},
		"documents": [
			{"filename": "South of France - Cities.pdf", "title": "South of France - Cities"},
			{"filename": "South of France - Cuisine.pdf", "title": "South of France - Cuisine"}
		],
		"persona": {"role": "Travel Planner"},
		"job_to_be_done": {"task": "Plan a trip of 4 days for a group of 10 college friends."}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Travel Planner", spec.Query.Persona)
	assert.Equal(t, "Plan a trip of 4 days for a group of 10 college friends.", spec.Query.Task)
	require.Len(t, spec.Documents, 2)
	assert.Equal(t, "South of France - Cuisine.pdf", spec.Documents[1].Filename)
}

func TestParseSpec_PlainStrings(t *testing.T) {
	spec, err := ParseSpec([]byte(`{"persona": "HR professional", "job_to_be_done": "Create fillable forms"}`))
	require.NoError(t, err)
	assert.Equal(t, model.Query{Persona: "HR professional", Task: "Create fillable forms"}, spec.Query)
	assert.Empty(t, spec.Documents)
}

func TestParseSpec_Errors(t *testing.T) {
	tests := map[string]string{
		"malformed":       `{"persona":`,
		"missing persona": `{"job_to_be_done": {"task": "x"}}`,
		"missing job":     `{"persona": {"role": "x"}}`,
		"wrong type":      `{"persona": 42, "job_to_be_done": "x"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSpec([]byte(data))
			var inputErr *model.InputError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
}

func TestLoadSpec_MissingFile(t *testing.T) {
	_, err := LoadSpec(filepath.Join(t.TempDir(), "absent.json"))
	var inputErr *model.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "input spec", inputErr.Field)
}

func TestLoadOutlines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cities.json"), `{
		"title": "Cities",
		"outline": [
			{"level": "H1", "text": "Marseille", "page": 2},
			{"level": "H2", "text": "History", "page_number": 3}
		]
	}`)
	writeFile(t, filepath.Join(dir, "empty.json"), `{"title": "Nothing", "outline": []}`)
	writeFile(t, filepath.Join(dir, "broken.json"), `{"outline": [`)
	writeFile(t, filepath.Join(dir, "readme.txt"), `not an outline`)

	outlines, err := LoadOutlines(dir, nil)
	require.NoError(t, err)

	assert.Len(t, outlines, 2, "malformed and non-JSON files are skipped")
	assert.Empty(t, outlines["empty"])

	cities := outlines["cities"]
	require.Len(t, cities, 2)
	assert.Equal(t, "cities", cities[0].Document)
	assert.Equal(t, "Marseille", cities[0].Text)
	assert.Equal(t, 0, cities[0].Order)
	assert.Equal(t, 1, cities[1].Order)

	page, ok := cities[0].ResolvedPage()
	assert.True(t, ok)
	assert.Equal(t, 2, page)

	page, ok = cities[1].ResolvedPage()
	assert.True(t, ok)
	assert.Equal(t, 3, page)
}

func TestLoadOutlines_MissingDir(t *testing.T) {
	_, err := LoadOutlines(filepath.Join(t.TempDir(), "absent"), nil)
	var inputErr *model.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestDiscoverCollections(t *testing.T) {
	root := t.TempDir()
	layout := DefaultLayout()
	writeFile(t, filepath.Join(root, "Collection 2", layout.SpecName), `{}`)
	writeFile(t, filepath.Join(root, "Collection 1", layout.SpecName), `{}`)
	writeFile(t, filepath.Join(root, "no-spec", "other.json"), `{}`)
	writeFile(t, filepath.Join(root, "loose.json"), `{}`)

	cols, err := DiscoverCollections(root, layout)
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "Collection 1", cols[0].Name)
	assert.Equal(t, filepath.Join(root, "Collection 1", "PDFs"), cols[0].PDFDir)
	assert.Equal(t, filepath.Join(root, "Collection 1", "outlines"), cols[0].OutlineDir)
	assert.Equal(t, filepath.Join(root, "Collection 1", layout.OutputName), cols[0].OutputFile)
	assert.Equal(t, "Collection 2", cols[1].Name)
}

func TestDiscoverCollections_None(t *testing.T) {
	_, err := DiscoverCollections(t.TempDir(), DefaultLayout())
	var inputErr *model.InputError
	assert.ErrorAs(t, err, &inputErr)
}
