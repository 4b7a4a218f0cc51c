// Package common provides shared constants for the auctiond binaries.
package common

// PackageName identifies this service in logs and metrics.
const PackageName = "auctiond"

// Version is the build version, overridable at link time.
var Version = "dev"
