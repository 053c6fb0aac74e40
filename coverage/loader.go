package coverage

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LoadResult pairs a parsed trace with the repairs applied while
// reading it.
type LoadResult struct {
	Set     *CoverageSet
	Path    string
	Repairs []Repair
}

// LoadAll reads multiple trace files concurrently, bounded by the CPU
// count. Results preserve the input path order. The first failing file
// cancels the remaining loads and is returned with its path wrapped in.
func LoadAll(ctx context.Context, paths []string, permissive bool) ([]LoadResult, error) {
	results := make([]LoadResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			set, repairs, err := FromFile(path, permissive)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}

			results[i] = LoadResult{
				Path:    path,
				Set:     set,
				Repairs: repairs,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
