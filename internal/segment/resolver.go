package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Resolver maps document filenames from the ranking to PDF files on disk
type Resolver struct {
	exact      map[string]string
	normalized map[string]string
}

// NewResolver indexes the PDFs in dir
func NewResolver(dir string) (*Resolver, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read pdf dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	r := &Resolver{
		exact:      make(map[string]string, len(names)),
		normalized: make(map[string]string, len(names)),
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		r.exact[name] = path
		// Sorted input makes the first file win on normalized collisions
		if key := normalizeStem(name); key != "" {
			if _, ok := r.normalized[key]; !ok {
				r.normalized[key] = path
			}
		}
	}
	return r, nil
}

// Resolve finds the file for a document name: exact basename first, then the
// normalized stem.
func (r *Resolver) Resolve(document string) (string, bool) {
	if path, ok := r.exact[filepath.Base(document)]; ok {
		return path, true
	}
	key := normalizeStem(document)
	if key == "" {
		return "", false
	}
	path, ok := r.normalized[key]
	return path, ok
}

// normalizeStem drops the extension and keeps only lowercased ASCII letters and digits
func normalizeStem(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
