package matcher

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MatchFiles scans every path in parallel and returns one Result per path,
// in input order. The first failing file cancels the remaining scans.
func (m *Matcher) MatchFiles(ctx context.Context, paths []string) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	parallelism := m.cfg.parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			result, err := m.ScanFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
