package catalog

import (
	"context"
	"io"
)

// ObjectFetcher downloads one object by key, e.g. from an S3 bucket.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectSource reads the reference workbooks from an object store. FileSpec
// paths are object keys; the key's extension selects the decoder.
type ObjectSource struct {
	fetcher     ObjectFetcher
	Tariffs     FileSpec
	ValueRanges FileSpec
	Postal      FileSpec
}

// NewObjectSource creates an ObjectSource backed by fetcher.
func NewObjectSource(fetcher ObjectFetcher, tariffs, valueRanges, postal FileSpec) *ObjectSource {
	return &ObjectSource{fetcher: fetcher, Tariffs: tariffs, ValueRanges: valueRanges, Postal: postal}
}

// Load implements Source.
func (s *ObjectSource) Load(ctx context.Context) (*Tables, error) {
	return loadAll(ctx, func(ctx context.Context, spec FileSpec) (io.ReadCloser, error) {
		return s.fetcher.Fetch(ctx, spec.Path)
	}, s.Tariffs, s.ValueRanges, s.Postal)
}
