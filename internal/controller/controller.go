// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package controller wires the configuration to the selected mode of the
// stackshape binary: running the workload, driving capture sessions around
// it, or validating a captured trace against the fixture model.
package controller // import "github.com/open-telemetry/stackshape/internal/controller"

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/open-telemetry/stackshape/check"
	"github.com/open-telemetry/stackshape/collapse"
	"github.com/open-telemetry/stackshape/harness"
	"github.com/open-telemetry/stackshape/shape"
	"github.com/open-telemetry/stackshape/workload"
)

// Controller runs one mode of the stackshape binary.
type Controller struct {
	config *Config
}

// New creates a new controller.
func New(cfg *Config) *Controller {
	return &Controller{config: cfg}
}

// Start runs the mode selected by the configuration.
func (c *Controller) Start(ctx context.Context) error {
	switch {
	case c.config.Check != "":
		return c.checkTrace()
	case c.config.Capture:
		return c.capture(ctx)
	default:
		_, err := c.runWorkload()
		return err
	}
}

// runWorkload executes the driver in-process. The workload is kept on a
// single locked OS thread so every captured sample belongs to one thread's
// stack, which is what makes validation against the call-tree model simple.
func (c *Controller) runWorkload() (float64, error) {
	variant, err := workload.ParseVariant(c.config.Variant)
	if err != nil {
		return 0, err
	}

	runtime.GOMAXPROCS(1)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := c.config.Iterations
	fmt.Printf("Running stackshape workload (%s variant) with %d iterations...\n",
		variant, n)
	result := workload.RunDriver(n, variant)
	fmt.Printf("Result: %f\n", result)
	return result, nil
}

// capture runs one capture session per mode, each around its own execution
// of this binary in workload mode. The on-CPU session samples the cpu
// variant; the off-CPU session traces scheduler switches of the offcpu
// variant.
func (c *Controller) capture(ctx context.Context) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating own executable: %w", err)
	}

	n := strconv.Itoa(c.config.Iterations)
	onCPU := harness.NewSession(harness.ModeOnCPU, c.config.Frequency,
		c.config.OutputDir,
		[]string{self, "-variant", string(workload.VariantCPU), n})
	offCPU := harness.NewSession(harness.ModeOffCPU, c.config.Frequency,
		c.config.OutputDir,
		[]string{self, "-variant", string(workload.VariantOffCPU), n})

	if err := harness.Run(ctx, c.config.Parallel, onCPU, offCPU); err != nil {
		return err
	}

	if !c.config.Fold {
		return nil
	}
	for _, s := range []*harness.Session{onCPU, offCPU} {
		if err := c.foldTrace(s.TracePath); err != nil {
			return err
		}
	}
	return nil
}

// foldTrace collapses one trace artifact into folded-stack form next to it,
// zstd-compressed, for the downstream renderer.
func (c *Controller) foldTrace(tracePath string) error {
	text, err := collapse.FromFile(tracePath)
	if err != nil {
		return err
	}
	stacks := collapse.Collapse(text, collapse.Options{IncludeComm: true})
	out := tracePath + ".folded.zst"
	if err := collapse.WriteFoldedFile(out, stacks); err != nil {
		return err
	}
	log.Infof("Folded %s into %s (%d unique stacks)", tracePath, out, len(stacks))
	return nil
}

// checkTrace validates a captured trace against the fixture model.
func (c *Controller) checkTrace() error {
	text, err := collapse.FromFile(c.config.Check)
	if err != nil {
		return err
	}
	stacks := collapse.Collapse(text, collapse.Options{})

	var report check.Report
	switch c.config.CheckMode {
	case string(harness.ModeOffCPU):
		report = check.OffCPU(stacks)
		log.Infof("Off-CPU samples attributed to the blocking I/O path: %d",
			report.BlockingSamples)
	default:
		report = check.OnCPU(stacks, shape.Driver(false))
		log.Infof("Observed Outer2 excursion ratio %.4f (model predicts %.4f)",
			report.ExcursionRatio, shape.ExpectedExcursionRatio())
	}

	for _, name := range report.Missing {
		log.Errorf("Expected frame %s not present in trace", name)
	}
	for _, stack := range report.Foreign {
		log.Errorf("Off-CPU samples outside the blocking I/O path: %s", stack)
	}
	if !report.OK() {
		return fmt.Errorf("trace %s does not match the fixture model", c.config.Check)
	}
	log.Infof("Trace %s matches the fixture model", c.config.Check)
	return nil
}
