// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-telemetry/stackshape/shape"
)

const pkg = "github.com/open-telemetry/stackshape/workload"

// onCPUStacks is a synthetic folded trace of the cpu variant at a reference
// scale: every modeled frame shows up, and Outer2's excursion path carries
// one sample per hundred in its direct leaf path.
func onCPUStacks() map[string]uint64 {
	return map[string]uint64{
		"main.main;" + pkg + ".RunDriver;" + pkg + ".Outer1;" + pkg + ".BranchA;" + pkg + ".Innermost": 420,
		"main.main;" + pkg + ".RunDriver;" + pkg + ".Outer1;" + pkg + ".BranchB;" + pkg + ".Innermost": 310,
		"main.main;" + pkg + ".RunDriver;" + pkg + ".Outer2;" + pkg + ".Innermost":                     500,
		"main.main;" + pkg + ".RunDriver;" + pkg + ".Outer2;" + pkg + ".BranchA;" + pkg + ".Innermost": 5,
		"main.main;" + pkg + ".RunDriver;" + pkg + ".AllocChurn":                                       60,
	}
}

func TestOnCPUAllFramesPresent(t *testing.T) {
	report := OnCPU(onCPUStacks(), shape.Driver(false))
	require.Empty(t, report.Missing)
	require.True(t, report.OK())
	require.InDelta(t, 0.01, report.ExcursionRatio, 0.001)
}

func TestOnCPUDetectsMissingFrame(t *testing.T) {
	stacks := onCPUStacks()
	delete(stacks, "main.main;"+pkg+".RunDriver;"+pkg+".Outer1;"+pkg+".BranchB;"+pkg+".Innermost")

	report := OnCPU(stacks, shape.Driver(false))
	require.Equal(t, []string{shape.FrameBranchB}, report.Missing)
	require.False(t, report.OK())
}

func TestOnCPUEmptyTrace(t *testing.T) {
	report := OnCPU(map[string]uint64{}, shape.Driver(false))
	require.ElementsMatch(t, shape.Driver(false).Frames(), report.Missing)
	require.False(t, report.OK())
	require.Equal(t, 0.0, report.ExcursionRatio)
}

func TestOffCPUAttribution(t *testing.T) {
	stacks := map[string]uint64{
		// Blocking inside the I/O routine's flush: expected.
		"main.main;" + pkg + ".RunDriver;" + pkg + ".BlockingIO;" + pkg + ".ioCycle": 37,
		// Scheduler noise outside the driver: ignored.
		"runtime.mcall;runtime.park_m": 12,
	}
	report := OffCPU(stacks)
	require.Empty(t, report.Foreign)
	require.True(t, report.OK())
	require.Equal(t, uint64(37), report.BlockingSamples)
}

func TestOffCPUDetectsForeignBlocking(t *testing.T) {
	foreign := "main.main;" + pkg + ".RunDriver;" + pkg + ".AllocChurn"
	report := OffCPU(map[string]uint64{
		"main.main;" + pkg + ".RunDriver;" + pkg + ".BlockingIO;" + pkg + ".ioCycle": 20,
		foreign: 3,
	})
	require.Equal(t, []string{foreign}, report.Foreign)
	require.False(t, report.OK())
}
