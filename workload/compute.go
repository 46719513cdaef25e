// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package workload implements the synthetic workload: a fixed call tree of
// numeric routines with known hot leaves, an allocation churn loop and a
// blocking I/O loop. It is the executable twin of the model in the shape
// package; samplers are validated against exactly this stack shape.
package workload // import "github.com/open-telemetry/stackshape/workload"

import (
	"math"

	"github.com/open-telemetry/stackshape/shape"
)

// Every function below is noinline: each frame must keep its own symbol so
// stack samples attribute time exactly where the shape model predicts.

// Innermost performs n iterations of pure floating-point work. It is the hot
// leaf of the entire fixture: no allocation, no blocking, and a deterministic
// result for a given n.
//
//go:noinline
func Innermost(n int) float64 {
	result := 0.0
	for i := 0; i < n; i++ {
		result += math.Sin(float64(i)*0.001) * math.Cos(float64(i)*0.002)
	}
	return result
}

// BranchA calls the hot leaf n/2 times with a fixed sub-iteration count.
//
//go:noinline
func BranchA(n int) float64 {
	result := 0.0
	for i := 0; i < n/2; i++ {
		result += Innermost(shape.LeafItersA)
	}
	return result
}

// BranchB mixes leaf calls with a secondary transform per iteration, so the
// frame shows two distinct child patterns at different stack depths.
//
//go:noinline
func BranchB(n int) float64 {
	result := 0.0
	for i := 0; i < n/3; i++ {
		result += Innermost(shape.LeafItersB)
		result += math.Sqrt(result*result + float64(i))
	}
	return result
}

// Outer1 is the wide, shallow entry point: both branches, the second at half
// scale.
//
//go:noinline
func Outer1(n int) float64 {
	result := 0.0
	result += BranchA(n)
	result += BranchB(n / 2)
	return result
}

// Outer2 is a hot loop with a rare deep excursion: every ExcursionPeriod-th
// iteration detours into BranchA. A statistical sampler must still catch the
// rare path.
//
//go:noinline
func Outer2(n int) float64 {
	result := 0.0
	for i := 0; i < n; i++ {
		result += Innermost(shape.LeafItersHot)
		if i%shape.ExcursionPeriod == 0 {
			result += BranchA(shape.ExcursionIters)
		}
	}
	return result
}
