// Package processor turns files of many formats into normalized text and
// metadata, and decomposes oversized documents into chunks.
package processor

import (
	"context"
	"io"

	"docanalyst/internal/domain"
)

// Processor is the capability shared by every supported file format.
//
// ExtractText and Metadata consume a byte stream; callers pass a fresh reader
// to each call. Split works from a path because several formats need random
// access to the whole file.
type Processor interface {
	Format() string
	Extensions() []string
	ExtractText(ctx context.Context, r io.Reader) (string, error)
	Metadata(ctx context.Context, r io.Reader) (map[string]any, error)
	Split(ctx context.Context, path string, opts domain.SplitOptions) ([]string, error)
}
