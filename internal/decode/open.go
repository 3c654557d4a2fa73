package decode

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// OpenAll opens every path concurrently and returns the sources in path
// order. If any open fails, the sources that did open are closed and the
// first error is returned, so a session never starts with a partial set.
func OpenAll(ctx context.Context, paths []string, opts ...Option) ([]Source, error) {
	sources := make([]Source, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			src, err := OpenAny(ctx, path, opts...)
			if err != nil {
				return fmt.Errorf("open source %d: %w", i, err)
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		CloseAll(sources)
		return nil, err
	}
	return sources, nil
}

// CloseAll closes every non-nil source.
func CloseAll(sources []Source) {
	for _, s := range sources {
		if s != nil {
			_ = s.Close()
		}
	}
}
