package ports

import (
	"context"

	"github.com/aretw0/cerberus/pkg/domain"
)

// SemanticsService sends a request to the remote semantics service and returns the
// raw JSON payload. Implementations make exactly one attempt; there is no retry.
type SemanticsService interface {
	Do(ctx context.Context, req domain.Request) ([]byte, error)
}

// SemanticsServiceFunc adapts a function to SemanticsService.
type SemanticsServiceFunc func(ctx context.Context, req domain.Request) ([]byte, error)

// Do calls f.
func (f SemanticsServiceFunc) Do(ctx context.Context, req domain.Request) ([]byte, error) {
	return f(ctx, req)
}

// SourceFetcher retrieves the text of a named source file.
type SourceFetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}
