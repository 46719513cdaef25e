// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink provides the process-wide accumulation sink the workload
// routines funnel their results into. The write is a real store to package
// state behind a noinline call, so the compiler cannot prove the numeric
// work dead and eliminate the call tree. Collapsing the tree would
// invalidate the whole fixture.
package sink // import "github.com/open-telemetry/stackshape/sink"

import (
	"math"
	"sync/atomic"
)

// store holds the float64 bit pattern of the accumulated value. The workload
// is single threaded; the atomic is there to make the store an externally
// visible memory operation, not for synchronization.
var store atomic.Uint64

// Add folds v into the sink.
//
//go:noinline
func Add(v float64) {
	store.Store(math.Float64bits(math.Float64frombits(store.Load()) + v))
}

// Value returns the accumulated value.
func Value() float64 {
	return math.Float64frombits(store.Load())
}

// Reset clears the accumulator so a run starts from a known state.
func Reset() {
	store.Store(0)
}
