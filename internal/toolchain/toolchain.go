// Package toolchain abstracts the external toolchain installer.
//
// The orchestrator passes exactly the job's version-channel and
// target-triple axis values; everything else about installation is the
// provisioner's business.
package toolchain

import (
	"context"
	"fmt"
)

// Handle identifies an installed toolchain.
type Handle struct {
	Version string
	Target  string
}

// Provisioner installs the requested compiler/runtime for one job.
type Provisioner interface {
	Install(ctx context.Context, version, target string) (Handle, error)
}

// Error reports that a toolchain could not be provisioned for the
// requested version/target pair.
type Error struct {
	Version string
	Target  string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provisioning toolchain %s for %s: %v", e.Version, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
