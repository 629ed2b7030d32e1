package suite

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecSuite_Pass(t *testing.T) {
	t.Parallel()

	s := &ExecSuite{Command: []string{"true"}, Dir: t.TempDir()}

	require.NoError(t, s.Run(context.Background()))
}

// TestExecSuite_NonZeroExitIsFailure verifies a completed suite with a
// non-zero exit is classified as a test failure carrying the exit code.
func TestExecSuite_NonZeroExitIsFailure(t *testing.T) {
	t.Parallel()

	s := &ExecSuite{Command: []string{"sh", "-c", "exit 101"}, Dir: t.TempDir()}

	err := s.Run(context.Background())

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, 101, failure.ExitCode)
}

// TestExecSuite_MissingCommandIsError verifies an unrunnable command is an
// infrastructure error, not a test failure.
func TestExecSuite_MissingCommandIsError(t *testing.T) {
	t.Parallel()

	s := &ExecSuite{Command: []string{"gridci-no-such-binary"}, Dir: t.TempDir()}

	err := s.Run(context.Background())

	require.Error(t, err)
	var failure *Failure
	require.False(t, errors.As(err, &failure))
}

// TestExecSuite_CanceledContextIsError verifies cancellation is never
// misclassified as a test failure even though the process exits non-zero.
func TestExecSuite_CanceledContextIsError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &ExecSuite{Command: []string{"sleep", "10"}, Dir: t.TempDir()}

	err := s.Run(ctx)

	require.Error(t, err)
	var failure *Failure
	require.False(t, errors.As(err, &failure))
}

func TestExecSuite_StreamsOutput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := &ExecSuite{Command: []string{"sh", "-c", "echo suite output"}, Dir: t.TempDir(), Stdout: &out, Stderr: &out}

	require.NoError(t, s.Run(context.Background()))
	require.Contains(t, out.String(), "suite output")
}

func TestExecSuite_NoCommand(t *testing.T) {
	t.Parallel()

	s := &ExecSuite{Dir: t.TempDir()}

	require.Error(t, s.Run(context.Background()))
}
