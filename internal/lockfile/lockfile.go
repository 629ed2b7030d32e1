// Package lockfile abstracts dependency lockfile generation.
//
// The lockfile is generated once per job, before the cache key is derived;
// hashing a stale or absent lockfile would break cache invalidation.
package lockfile

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gridci/gridci/internal/ctxlog"
)

// Generator produces the lockfile bytes for one job.
type Generator interface {
	Generate(ctx context.Context) ([]byte, error)
}

// Error reports that the lockfile could not be produced.
type Error struct {
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("generating lockfile: %v", e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// ExecGenerator runs the declared generation command in the workspace and
// then reads the lockfile from its declared path.
type ExecGenerator struct {
	Command []string
	Path    string
	Dir     string
}

// Generate implements Generator.
func (g *ExecGenerator) Generate(ctx context.Context) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)

	if len(g.Command) == 0 {
		return nil, &Error{Err: fmt.Errorf("no generation command declared")}
	}

	logger.Debug("Generating lockfile.", "command", g.Command)
	cmd := exec.CommandContext(ctx, g.Command[0], g.Command[1:]...)
	cmd.Dir = g.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		logger.Error("Lockfile generation failed.", "output", string(out))
		return nil, &Error{Err: err}
	}

	data, err := os.ReadFile(filepath.Join(g.Dir, g.Path))
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("reading %s: %w", g.Path, err)}
	}

	logger.Debug("Lockfile generated.", "path", g.Path, "bytes", len(data))
	return data, nil
}
