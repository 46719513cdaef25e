// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// stackshape generates a synthetic process workload whose call-stack shape,
// self-time distribution and blocking behavior are known in advance, so that
// CPU and off-CPU sampling pipelines can be validated against an expected
// call-tree model instead of opaque real-world behavior.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/open-telemetry/stackshape/harness"
	"github.com/open-telemetry/stackshape/internal/controller"
	"github.com/open-telemetry/stackshape/vc"
	"github.com/open-telemetry/stackshape/workload"
)

type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	exitParseError exitCode = 2
)

func main() {
	os.Exit(int(mainWithExitCode()))
}

func mainWithExitCode() exitCode {
	args, err := parseArgs()
	if err != nil {
		return parseError("Failure to parse arguments: %v", err)
	}

	if args.Version {
		fmt.Printf("%s (revision %s, build timestamp %s)\n",
			vc.Version(), vc.Revision(), vc.BuildTimestamp())
		return exitSuccess
	}

	if args.VerboseMode {
		log.SetLevel(log.DebugLevel)
	}

	if code := sanityCheck(args); code != exitSuccess {
		return code
	}

	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM)
	defer mainCancel()

	if err := controller.New(args).Start(mainCtx); err != nil {
		return failure("%v", err)
	}

	return exitSuccess
}

func sanityCheck(args *controller.Config) exitCode {
	if _, err := workload.ParseVariant(args.Variant); err != nil {
		return parseError("%v", err)
	}

	if args.Frequency <= 0 {
		return parseError("Invalid argument for frequency: %d, must be positive",
			args.Frequency)
	}

	if args.Capture && args.Check != "" {
		return parseError("-capture and -check are mutually exclusive")
	}

	if args.Check != "" {
		switch harness.Mode(args.CheckMode) {
		case harness.ModeOnCPU, harness.ModeOffCPU:
		default:
			return parseError("Invalid argument for check-mode: %q (expected %s or %s)",
				args.CheckMode, harness.ModeOnCPU, harness.ModeOffCPU)
		}
	}

	return exitSuccess
}

func parseError(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitParseError
}

func failure(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitFailure
}
