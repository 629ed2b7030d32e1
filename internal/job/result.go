package job

import (
	"time"

	"github.com/gridci/gridci/internal/matrix"
)

// Outcome classifies how a job finished.
type Outcome int

const (
	// Success: every state completed.
	Success Outcome = iota
	// Failure: the test suite ran and exited non-zero.
	Failure
	// Error: an infrastructure step failed before or around the suite
	// (provisioning, lockfile generation, cancellation).
	Error
)

// String returns the outcome name used in summaries and logs.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the immutable record of one completed job.
type Result struct {
	Spec    matrix.JobSpec
	Outcome Outcome

	// FailedAt is the state in which the job failed, or Done on success.
	FailedAt State

	// Err carries the failure cause; nil on success.
	Err error

	Started  time.Time
	Duration time.Duration
}

// Failed reports whether the result counts against the run verdict. The
// distinction between Failure and Error is preserved on the result but
// collapses here: both fail the run.
func (r Result) Failed() bool {
	return r.Outcome != Success
}
