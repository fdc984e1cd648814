package driver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/regehr/uniform-tree-sampling/guide"
)

// Job pairs an independent guide with the generator and traversal cap to
// run it with.
type Job struct {
	Guide         guide.Guide
	Gen           Generator
	MaxTraversals int
}

// Parallel runs each job's RunContext concurrently with
// golang.org/x/sync/errgroup and returns one RunResult per job, in job
// order. Every job uses its own guide, so the single-chooser-per-guide
// discipline each Guide enforces internally is never contended across
// goroutines — guides share nothing, per the contract each guide
// implementation already upholds on its own. ctx is threaded into every
// job's RunContext call, so a guide wrapped in telemetry.InstrumentedGuide
// parents each job's traversal spans under the caller's own span. Canceling
// ctx does not stop any job: RunContext never checks ctx for cancellation,
// and Parallel always waits for every job to finish.
func Parallel(ctx context.Context, jobs []Job) ([]RunResult, error) {
	results := make([]RunResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = RunContext(gctx, job.Guide, job.Gen, job.MaxTraversals)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
