// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"github.com/open-telemetry/stackshape/shape"
	"github.com/open-telemetry/stackshape/sink"
)

// churnBlockInts is deliberately a var: a non-constant length keeps escape
// analysis from placing the block on the stack, so every cycle really goes
// through the allocator.
var churnBlockInts = shape.ChurnBlockInts

// churnProbeIndex is the element routed into the sink each cycle.
const churnProbeIndex = 500

// AllocChurn runs count acquire/initialize/use/release cycles against the
// heap and returns the number of cycles performed. Each cycle owns exactly
// one block and nothing survives the cycle. Allocation failure aborts the
// process; this is a stress fixture and an out-of-memory environment is not
// worth continuing in.
//
//go:noinline
func AllocChurn(count int) int {
	cycles := 0
	for i := 0; i < count; i++ {
		sink.Add(float64(churnCycle(i)))
		cycles++
	}
	return cycles
}

// churnCycle allocates one block, writes the iteration's sentinel pattern
// into every element and returns the probe element. The block is dropped
// when the call returns.
//
//go:noinline
func churnCycle(i int) int {
	block := make([]int, churnBlockInts)
	for j := range block {
		block[j] = j * i
	}
	return block[churnProbeIndex]
}
