package executor

import (
	"time"

	"github.com/gridci/gridci/internal/job"
)

// Summary aggregates all job results of one triggered run and owns the
// overall verdict. It is finalized once every result is in; the verdict
// depends only on the set of outcomes, never on completion order.
type Summary struct {
	RunID    string
	Pipeline string
	Results  []job.Result
	Started  time.Time
	Duration time.Duration
}

// OK reports the aggregate verdict: true only if no job failed.
func (s *Summary) OK() bool {
	return s.FailedCount() == 0
}

// FailedCount returns how many jobs count against the verdict.
func (s *Summary) FailedCount() int {
	failed := 0
	for _, res := range s.Results {
		if res.Failed() {
			failed++
		}
	}
	return failed
}
