// Package parallel runs independent planning jobs with bounded concurrency.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/fusion/internal/envconfig"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether jobs may run concurrently.
	NumWorkers int  // Maximum number of jobs in flight.
}

// DefaultConfig reads the worker count from BORN_PLAN_WORKERS.
func DefaultConfig() Config {
	n := int(envconfig.PlanWorkers()) //nolint:gosec // G115: worker counts are small.
	return Config{
		Enabled:    n > 1,
		NumWorkers: max(n, 1),
	}
}

// ForEach calls fn(ctx, i) for i in [0, n) and returns the first error.
//
// Jobs run sequentially when cfg is disabled or n < 2. Otherwise at most
// cfg.NumWorkers jobs run at once and ctx is cancelled after the first
// failure; jobs that have not started yet are skipped. Jobs must not share
// mutable state.
func ForEach(ctx context.Context, n int, cfg Config, fn func(ctx context.Context, i int) error) error {
	if !cfg.Enabled || n < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.NumWorkers, 1))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
