package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher implements ports.SourceFetcher by reading files below a root directory.
type Fetcher struct {
	Root string
}

// NewFetcher creates a Fetcher rooted at root.
func NewFetcher(root string) *Fetcher {
	return &Fetcher{Root: root}
}

// Fetch reads name relative to the root. Names escaping the root are refused.
func (f *Fetcher) Fetch(ctx context.Context, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid source name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(f.Root, clean))
	if err != nil {
		return "", fmt.Errorf("failed to read source %q: %w", name, err)
	}
	return string(data), nil
}
