// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package check validates collapsed stack traces captured by an external
// sampler against the fixture call-tree model. This is what makes the
// workload usable as ground truth: a sampler that misses a modeled frame, or
// attributes blocking time outside the blocking I/O path, is caught here.
package check // import "github.com/open-telemetry/stackshape/check"

import (
	"sort"
	"strings"

	"github.com/open-telemetry/stackshape/shape"
)

// Report is the verdict of comparing a trace against the model.
type Report struct {
	// Missing lists modeled frames absent from the trace.
	Missing []string
	// ExcursionRatio is the observed ratio of Outer2 samples that went
	// through the BranchA excursion to those in its direct leaf path.
	// The model predicts roughly shape.ExpectedExcursionRatio.
	ExcursionRatio float64
	// BlockingSamples counts off-CPU samples attributed to the blocking
	// I/O path.
	BlockingSamples uint64
	// Foreign lists off-CPU stacks that enter the driver but block
	// outside the blocking I/O routine.
	Foreign []string
}

// OK reports whether the trace is consistent with the model.
func (r *Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Foreign) == 0
}

// OnCPU checks folded on-CPU stacks against the call tree rooted at model:
// every modeled frame must appear in at least one sampled stack, and Outer2's
// rare excursion frequency is measured for comparison against the model.
func OnCPU(stacks map[string]uint64, model *shape.Node) Report {
	var r Report
	for _, name := range model.Frames() {
		if !framePresent(stacks, name) {
			r.Missing = append(r.Missing, name)
		}
	}
	sort.Strings(r.Missing)
	r.ExcursionRatio = excursionRatio(stacks)
	return r
}

// OffCPU verifies that blocking samples inside the driver attribute to the
// blocking I/O path and nowhere else. Stacks that never enter the driver
// (scheduler and runtime noise from the rest of the system) are ignored.
func OffCPU(stacks map[string]uint64) Report {
	var r Report
	for stack, count := range stacks {
		if !stackHasFrame(stack, shape.FrameDriver) {
			continue
		}
		if stackHasFrame(stack, shape.FrameBlockingIO) {
			r.BlockingSamples += count
		} else {
			r.Foreign = append(r.Foreign, stack)
		}
	}
	sort.Strings(r.Foreign)
	return r
}

// excursionRatio compares Outer2's two child paths: samples that detoured
// into BranchA against samples in the direct Innermost path.
func excursionRatio(stacks map[string]uint64) float64 {
	var excursion, direct uint64
	for stack, count := range stacks {
		if !stackHasFrame(stack, shape.FrameOuter2) {
			continue
		}
		switch {
		case stackHasFrame(stack, shape.FrameBranchA):
			excursion += count
		case stackHasFrame(stack, shape.FrameInnermost):
			direct += count
		}
	}
	if direct == 0 {
		return 0
	}
	return float64(excursion) / float64(direct)
}

func framePresent(stacks map[string]uint64, name string) bool {
	for stack := range stacks {
		if stackHasFrame(stack, name) {
			return true
		}
	}
	return false
}

// stackHasFrame matches a modeled frame name against the symbolized frames
// of one folded stack. Model names omit the module prefix, so frames match
// on symbol suffix.
func stackHasFrame(stack, name string) bool {
	for _, frame := range strings.Split(stack, ";") {
		if strings.HasSuffix(frame, name) {
			return true
		}
	}
	return false
}
