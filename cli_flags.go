// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/peterbourgon/ff/v3"

	"github.com/open-telemetry/stackshape/internal/controller"
	"github.com/open-telemetry/stackshape/shape"
	"github.com/open-telemetry/stackshape/workload"
)

const (
	// Default values for CLI flags
	defaultArgVariant   = string(workload.VariantCPU)
	defaultArgFrequency = 997
	defaultArgOutputDir = "."
	defaultArgCheckMode = "oncpu"
)

// Help strings for command line arguments
var (
	variantHelp = "Workload variant to run: cpu (compute and allocation " +
		"phases) or offcpu (adds the blocking I/O phase)."
	captureHelp = "Wrap one workload execution per capture mode in a perf " +
		"record session instead of running the workload directly."
	parallelHelp = "Run the capture sessions in parallel, each against its " +
		"own workload process and trace file."
	frequencyHelp = "On-CPU stack sampling frequency passed to perf record, in Hz."
	outputDirHelp = "Directory the capture sessions write their trace files to."
	foldHelp      = "After capturing, collapse each trace into folded-stack " +
		"form next to the trace file (zstd-compressed)."
	checkHelp = "Validate the given trace artifact (perf.data or perf-script " +
		"text) against the fixture model and exit."
	checkModeHelp = "Interpretation of the trace under -check: oncpu or offcpu."
	verboseHelp   = "Enable verbose logging and debugging capabilities."
	versionHelp   = "Show version."
)

func parseArgs() (*controller.Config, error) {
	var args controller.Config

	fs := flag.NewFlagSet("stackshape", flag.ExitOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.BoolVar(&args.Capture, "capture", false, captureHelp)
	fs.StringVar(&args.Check, "check", "", checkHelp)
	fs.StringVar(&args.CheckMode, "check-mode", defaultArgCheckMode, checkModeHelp)
	fs.BoolVar(&args.Fold, "fold", false, foldHelp)
	fs.IntVar(&args.Frequency, "frequency", defaultArgFrequency, frequencyHelp)
	fs.StringVar(&args.OutputDir, "output-dir", defaultArgOutputDir, outputDirHelp)
	fs.BoolVar(&args.Parallel, "parallel", false, parallelHelp)
	fs.StringVar(&args.Variant, "variant", defaultArgVariant, variantHelp)
	fs.BoolVar(&args.VerboseMode, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&args.VerboseMode, "verbose", false, verboseHelp)
	fs.BoolVar(&args.Version, "version", false, versionHelp)

	fs.Usage = func() {
		fs.PrintDefaults()
	}

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("STACKSHAPE"),
	); err != nil {
		return nil, err
	}

	args.Iterations = iterationsFromArgs(fs.Args())

	return &args, nil
}

// iterationsFromArgs reads the single optional positional scale parameter.
// Absent or non-numeric input falls back to the default and negatives clamp
// to zero; the fixture never treats a bad scale as an error.
func iterationsFromArgs(rest []string) int {
	if len(rest) == 0 {
		return shape.DefaultIterations
	}
	n, err := strconv.Atoi(rest[0])
	if err != nil {
		return shape.DefaultIterations
	}
	if n < 0 {
		return 0
	}
	return n
}
