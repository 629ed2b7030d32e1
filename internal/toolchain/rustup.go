package toolchain

import (
	"context"
	"os/exec"

	"github.com/gridci/gridci/internal/ctxlog"
)

// Rustup provisions Rust toolchains through the rustup binary: one call to
// install the requested channel, one to add the target triple to it.
type Rustup struct {
	// Binary overrides the rustup executable, defaulting to "rustup" on
	// PATH. Used by tests.
	Binary string
}

// Install implements Provisioner.
func (r *Rustup) Install(ctx context.Context, version, target string) (Handle, error) {
	logger := ctxlog.FromContext(ctx).With("version", version, "target", target)

	bin := r.Binary
	if bin == "" {
		bin = "rustup"
	}

	logger.Info("Installing toolchain.")
	install := exec.CommandContext(ctx, bin, "toolchain", "install", version, "--profile", "minimal")
	if out, err := install.CombinedOutput(); err != nil {
		logger.Error("Toolchain install failed.", "output", string(out))
		return Handle{}, &Error{Version: version, Target: target, Err: err}
	}

	if target != "" {
		addTarget := exec.CommandContext(ctx, bin, "target", "add", target, "--toolchain", version)
		if out, err := addTarget.CombinedOutput(); err != nil {
			logger.Error("Target add failed.", "output", string(out))
			return Handle{}, &Error{Version: version, Target: target, Err: err}
		}
	}

	logger.Debug("Toolchain provisioned.")
	return Handle{Version: version, Target: target}, nil
}
