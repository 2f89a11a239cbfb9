package memory

import (
	"context"
	"fmt"
	"sort"
)

// Fetcher implements ports.SourceFetcher using an in-memory map of file names to text.
type Fetcher struct {
	files map[string]string
}

// NewFetcher creates a Fetcher serving the given files.
func NewFetcher(files map[string]string) *Fetcher {
	cp := make(map[string]string, len(files))
	for k, v := range files {
		cp[k] = v
	}
	return &Fetcher{files: cp}
}

// Fetch returns the text of name.
func (f *Fetcher) Fetch(ctx context.Context, name string) (string, error) {
	text, ok := f.files[name]
	if !ok {
		return "", fmt.Errorf("source not found: %s", name)
	}
	return text, nil
}

// Names returns all available file names.
func (f *Fetcher) Names() []string {
	keys := make([]string, 0, len(f.files))
	for k := range f.files {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys
}
