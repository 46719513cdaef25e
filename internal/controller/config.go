// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "github.com/open-telemetry/stackshape/internal/controller"

// Config carries the CLI-settable knobs of the stackshape binary.
type Config struct {
	// Iterations is the single scale parameter every phase's loop bounds
	// derive from.
	Iterations int
	// Variant selects the workload variant: cpu or offcpu.
	Variant string

	// Capture wraps one workload execution per capture mode in a perf
	// record session instead of running the workload directly.
	Capture bool
	// Parallel runs the capture sessions concurrently, each against its
	// own workload process and trace file.
	Parallel bool
	// Frequency is the on-CPU sampling frequency in Hz.
	Frequency int
	// OutputDir is where capture sessions write their trace files.
	OutputDir string
	// Fold collapses each captured trace into folded-stack form next to
	// the trace file.
	Fold bool

	// Check validates the given trace artifact against the fixture model
	// instead of running anything.
	Check string
	// CheckMode is the interpretation of the trace under Check: oncpu or
	// offcpu.
	CheckMode string

	VerboseMode bool
	Version     bool
}
