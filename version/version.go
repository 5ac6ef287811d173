// Package version exposes build metadata stamped in at link time.
package version

import "runtime"

// Set via -ldflags at build time.
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
)

// GoInfo is the Go toolchain version used to build the binary.
var GoInfo = runtime.Version()
