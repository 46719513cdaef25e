// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package vc provides buildtime information.
package vc // import "github.com/open-telemetry/stackshape/vc"

var (
	// The following variables are going to be set at link time using ldflags
	// and can be referenced later in the program.

	// revision of the fixture generator
	revision = "dev"
	// buildTimestamp, timestamp of the build
	buildTimestamp = "N/A"
	// version in vX.Y.Z{-N-abbrev} format (via git-describe --tags)
	version = "0.2.0"
)

// Revision of the fixture generator.
func Revision() string {
	return revision
}

// BuildTimestamp returns the timestamp of the build.
func BuildTimestamp() string {
	return buildTimestamp
}

// Version in vX.Y.Z{-N-abbrev} format.
func Version() string {
	return version
}
