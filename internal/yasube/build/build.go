// Package build holds version information stamped in at link time, e.g.
//
//	go build -ldflags "-X github.com/yasube/yasube/internal/yasube/build.ReleaseVersion=v1.2.0"
package build

import "runtime"

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = runtime.Version()
)
