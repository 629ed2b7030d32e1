package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridci/gridci/internal/job"
	"github.com/gridci/gridci/internal/matrix"
)

// funcRunner adapts a function to the Runner interface.
type funcRunner func(ctx context.Context, spec matrix.JobSpec) job.Result

func (f funcRunner) Run(ctx context.Context, spec matrix.JobSpec) job.Result {
	return f(ctx, spec)
}

func specs(names ...string) []matrix.JobSpec {
	out := make([]matrix.JobSpec, len(names))
	for i, name := range names {
		out[i] = matrix.JobSpec{Ordinal: i, Name: name}
	}
	return out
}

func succeed(_ context.Context, spec matrix.JobSpec) job.Result {
	return job.Result{Spec: spec, Outcome: job.Success, FailedAt: job.Done, Started: time.Now()}
}

func failNamed(name string) funcRunner {
	return func(_ context.Context, spec matrix.JobSpec) job.Result {
		res := job.Result{Spec: spec, Outcome: job.Success, FailedAt: job.Done, Started: time.Now()}
		if spec.Name == name {
			res.Outcome = job.Failure
			res.FailedAt = job.Testing
			res.Err = errors.New("suite failed")
		}
		return res
	}
}

// TestExecutor_AllJobsReport verifies that with fail-fast disabled every job
// runs to a terminal state and the summary contains all of them, even when
// one fails early.
func TestExecutor_AllJobsReport(t *testing.T) {
	t.Parallel()

	// Arrange
	exec := New(failNamed("a"), 4, false)

	// Act
	summary := exec.Run(context.Background(), "ci", specs("a", "b", "c", "d"))

	// Assert
	require.Len(t, summary.Results, 4)
	require.False(t, summary.OK())
	require.Equal(t, 1, summary.FailedCount())
	for _, res := range summary.Results {
		if res.Spec.Name == "a" {
			require.Equal(t, job.Failure, res.Outcome)
			continue
		}
		require.Equal(t, job.Success, res.Outcome)
	}
}

// TestExecutor_FailFastSkipsPending verifies that with fail-fast enabled and
// a single worker, the first failure cancels every job still in the queue.
func TestExecutor_FailFastSkipsPending(t *testing.T) {
	t.Parallel()

	// Arrange: one worker guarantees jobs run strictly in order.
	exec := New(failNamed("a"), 1, true)

	// Act
	summary := exec.Run(context.Background(), "ci", specs("a", "b", "c"))

	// Assert: "a" failed, the rest never ran.
	require.Len(t, summary.Results, 3)
	require.Equal(t, job.Failure, summary.Results[0].Outcome)
	for _, res := range summary.Results[1:] {
		require.Equal(t, job.Error, res.Outcome)
		require.Equal(t, job.Pending, res.FailedAt)
		require.ErrorIs(t, res.Err, context.Canceled)
	}
}

// TestExecutor_FailFastCancelsInFlight verifies that a failure cancels the
// context seen by jobs already running on other workers.
func TestExecutor_FailFastCancelsInFlight(t *testing.T) {
	t.Parallel()

	// Arrange: "slow" blocks until its context is canceled by "bad" failing.
	runner := funcRunner(func(ctx context.Context, spec matrix.JobSpec) job.Result {
		res := job.Result{Spec: spec, Outcome: job.Success, FailedAt: job.Done, Started: time.Now()}
		switch spec.Name {
		case "bad":
			res.Outcome = job.Failure
			res.FailedAt = job.Testing
			res.Err = errors.New("suite failed")
		case "slow":
			select {
			case <-ctx.Done():
				res.Outcome = job.Error
				res.FailedAt = job.Testing
				res.Err = ctx.Err()
			case <-time.After(10 * time.Second):
				// Only reached if cancellation never propagates.
			}
		}
		return res
	})
	exec := New(runner, 2, true)

	// Act
	summary := exec.Run(context.Background(), "ci", specs("slow", "bad"))

	// Assert
	require.Len(t, summary.Results, 2)
	require.Equal(t, job.Error, summary.Results[0].Outcome)
	require.ErrorIs(t, summary.Results[0].Err, context.Canceled)
	require.Equal(t, job.Failure, summary.Results[1].Outcome)
}

// TestExecutor_ResultsInExpansionOrder verifies the summary reports in
// ordinal order no matter which job finishes first.
func TestExecutor_ResultsInExpansionOrder(t *testing.T) {
	t.Parallel()

	// Arrange: earlier ordinals sleep longer, so arrival order is reversed.
	runner := funcRunner(func(_ context.Context, spec matrix.JobSpec) job.Result {
		time.Sleep(time.Duration(3-spec.Ordinal) * 10 * time.Millisecond)
		return job.Result{Spec: spec, Outcome: job.Success, FailedAt: job.Done, Started: time.Now()}
	})
	exec := New(runner, 4, false)

	// Act
	summary := exec.Run(context.Background(), "ci", specs("a", "b", "c", "d"))

	// Assert
	require.Len(t, summary.Results, 4)
	for i, res := range summary.Results {
		require.Equal(t, i, res.Spec.Ordinal)
	}
}

// TestExecutor_BoundedConcurrency verifies no more than the configured
// number of jobs run at once.
func TestExecutor_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	// Arrange
	var mu sync.Mutex
	running, peak := 0, 0
	runner := funcRunner(func(_ context.Context, spec matrix.JobSpec) job.Result {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return job.Result{Spec: spec, Outcome: job.Success, FailedAt: job.Done, Started: time.Now()}
	})
	exec := New(runner, 2, false)

	// Act
	summary := exec.Run(context.Background(), "ci", specs("a", "b", "c", "d", "e", "f"))

	// Assert
	require.Len(t, summary.Results, 6)
	require.LessOrEqual(t, peak, 2)
}

func TestExecutor_ZeroSpecs(t *testing.T) {
	t.Parallel()

	exec := New(funcRunner(succeed), 4, false)

	summary := exec.Run(context.Background(), "ci", nil)

	require.Empty(t, summary.Results)
	require.True(t, summary.OK())
	require.NotEmpty(t, summary.RunID)
}

func TestExecutor_RunIDsAreUnique(t *testing.T) {
	t.Parallel()

	exec := New(funcRunner(succeed), 1, false)

	first := exec.Run(context.Background(), "ci", specs("a"))
	second := exec.Run(context.Background(), "ci", specs("a"))

	require.NotEqual(t, first.RunID, second.RunID)
}

// TestSummary_Verdict verifies both Failure and Error outcomes count
// against the aggregate verdict.
func TestSummary_Verdict(t *testing.T) {
	t.Parallel()

	summary := &Summary{Results: []job.Result{
		{Outcome: job.Success},
		{Outcome: job.Failure},
		{Outcome: job.Error},
	}}

	require.False(t, summary.OK())
	require.Equal(t, 2, summary.FailedCount())
}
