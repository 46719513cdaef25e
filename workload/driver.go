// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/open-telemetry/stackshape/shape"
	"github.com/open-telemetry/stackshape/sink"
)

// Variant selects which phases the driver runs. The cpu variant exercises
// only the on-CPU phases; the offcpu variant adds the blocking I/O phase.
type Variant string

const (
	VariantCPU    Variant = "cpu"
	VariantOffCPU Variant = "offcpu"
)

// ParseVariant parses a variant name.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantCPU, VariantOffCPU:
		return Variant(s), nil
	}
	return "", fmt.Errorf("unknown workload variant %q (expected %s or %s)",
		s, VariantCPU, VariantOffCPU)
}

// RunDriver executes the fixture phases in their fixed order and returns the
// accumulated compute result. The sequence and the scaling of each phase are
// part of the fixture contract: a sampler is validated against exactly this
// shape. Negative scale parameters clamp to zero.
//
//go:noinline
func RunDriver(n int, variant Variant) float64 {
	if n < 0 {
		n = 0
	}

	result := 0.0
	result += Outer1(n)
	result += Outer2(n)
	sink.Add(result)

	AllocChurn(n * shape.ChurnMultiplier)

	if variant == VariantOffCPU {
		for i := 0; i < shape.IOPhases; i++ {
			if _, err := BlockingIO(n / shape.IODivisor); err != nil {
				log.Warnf("Blocking I/O phase %d: %v", i, err)
			}
		}
	}
	return result
}
