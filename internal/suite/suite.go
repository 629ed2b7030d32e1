// Package suite abstracts the test-suite executor.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/gridci/gridci/internal/ctxlog"
)

// Executor runs the full test suite non-interactively. A nil return means
// the suite passed.
type Executor interface {
	Run(ctx context.Context) error
}

// Failure reports a suite that ran to completion and exited non-zero. It
// is distinct from infrastructure errors (command not found, context
// canceled), which surface as ordinary errors.
type Failure struct {
	ExitCode int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("test suite failed with exit status %d", f.ExitCode)
}

// ExecSuite runs the declared test command in the workspace. Stdout and
// Stderr receive the suite's uncaptured diagnostic output; leaving them nil
// discards it.
type ExecSuite struct {
	Command []string
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Run implements Executor.
func (s *ExecSuite) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if len(s.Command) == 0 {
		return fmt.Errorf("no test command declared")
	}

	logger.Info("Running test suite.", "command", s.Command)
	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Dir = s.Dir
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return &Failure{ExitCode: exitErr.ExitCode()}
	}
	return fmt.Errorf("running test suite: %w", err)
}
