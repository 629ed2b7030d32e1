// Package executor is the fan-out controller: it launches every expanded
// job spec as an independently failing unit of work, applies the fail-fast
// policy, and aggregates the results into a run summary.
package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridci/gridci/internal/ctxlog"
	"github.com/gridci/gridci/internal/job"
	"github.com/gridci/gridci/internal/matrix"
)

// Runner executes one job spec to completion. The production implementation
// is *job.Runner; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, spec matrix.JobSpec) job.Result
}

// Executor fans a spec list out over a bounded worker pool and funnels
// results back through a channel. No mutable state is shared between jobs;
// the join point is the results channel alone, which keeps the "all jobs
// always report" invariant trivially true.
type Executor struct {
	runner   Runner
	workers  int
	failFast bool
}

// New creates an Executor. workers bounds concurrency; values below one are
// raised to one.
func New(runner Runner, workers int, failFast bool) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{runner: runner, workers: workers, failFast: failFast}
}

// Run executes every spec and returns the finalized summary. With fail-fast
// disabled every job runs to its terminal state regardless of siblings; with
// it enabled, the first failing result cancels all in-flight and pending
// jobs, which then report as skipped.
func (e *Executor) Run(ctx context.Context, pipeline string, specs []matrix.JobSpec) *Summary {
	summary := &Summary{
		RunID:    uuid.NewString(),
		Pipeline: pipeline,
		Started:  time.Now(),
	}
	logger := ctxlog.FromContext(ctx).With("runID", summary.RunID, "pipeline", pipeline)
	ctx = ctxlog.WithLogger(ctx, logger)
	defer func() { summary.Duration = time.Since(summary.Started) }()

	if len(specs) == 0 {
		logger.Warn("Matrix expanded to zero jobs, nothing to run.")
		return summary
	}

	jobs := make(chan matrix.JobSpec, len(specs))
	for _, spec := range specs {
		jobs <- spec
	}
	close(jobs)

	results := make(chan job.Result, len(specs))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := e.workers
	if workers > len(specs) {
		workers = len(specs)
	}

	logger.Info("Starting concurrent execution.", "jobs", len(specs), "workers", workers, "failFast", e.failFast)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			e.worker(runCtx, workerID, jobs, results, cancel)
		}(i)
	}

	wg.Wait()
	close(results)

	for res := range results {
		summary.Results = append(summary.Results, res)
	}
	// Arrival order is nondeterministic; report in expansion order. The
	// verdict does not depend on this, only the rendering does.
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Spec.Ordinal < summary.Results[j].Spec.Ordinal
	})

	logger.Info("Execution finished.", "jobs", len(summary.Results), "failed", summary.FailedCount())
	return summary
}

// worker drains the job channel. Under fail-fast a canceled context turns
// remaining jobs into skipped results without invoking the runner.
func (e *Executor) worker(ctx context.Context, workerID int, jobs <-chan matrix.JobSpec, results chan<- job.Result, cancel context.CancelFunc) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	for spec := range jobs {
		if err := ctx.Err(); err != nil {
			logger.Warn("Skipping job, run canceled.", "job", spec.Name)
			results <- job.Result{
				Spec:     spec,
				Outcome:  job.Error,
				FailedAt: job.Pending,
				Err:      fmt.Errorf("skipped: %w", err),
				Started:  time.Now(),
			}
			continue
		}

		logger.Debug("Worker picked up job.", "job", spec.Name)
		res := e.runner.Run(ctx, spec)

		if res.Failed() && e.failFast {
			logger.Warn("Job failed, canceling remaining jobs (fail-fast).", "job", spec.Name)
			cancel()
		}
		results <- res
	}

	logger.Debug("Worker finished.")
}
