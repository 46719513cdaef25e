// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-telemetry/stackshape/internal/controller"
	"github.com/open-telemetry/stackshape/shape"
)

func TestIterationsFromArgs(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string

		want int
	}{
		{name: "absent falls back", args: nil, want: shape.DefaultIterations},
		{name: "numeric", args: []string{"2000"}, want: 2000},
		{name: "non-numeric falls back", args: []string{"lots"}, want: shape.DefaultIterations},
		{name: "negative clamps", args: []string{"-3"}, want: 0},
		{name: "zero", args: []string{"0"}, want: 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, iterationsFromArgs(tt.args))
		})
	}
}

func TestSanityCheck(t *testing.T) {
	for _, tt := range []struct {
		name   string
		config controller.Config

		want exitCode
	}{
		{
			name:   "defaults",
			config: controller.Config{Variant: "cpu", Frequency: 997},
			want:   exitSuccess,
		},
		{
			name:   "bad variant",
			config: controller.Config{Variant: "gpu", Frequency: 997},
			want:   exitParseError,
		},
		{
			name:   "bad frequency",
			config: controller.Config{Variant: "cpu", Frequency: 0},
			want:   exitParseError,
		},
		{
			name: "capture and check exclusive",
			config: controller.Config{
				Variant: "cpu", Frequency: 997,
				Capture: true, Check: "trace.perf.data", CheckMode: "oncpu",
			},
			want: exitParseError,
		},
		{
			name: "bad check mode",
			config: controller.Config{
				Variant: "cpu", Frequency: 997,
				Check: "trace.perf.data", CheckMode: "wallclock",
			},
			want: exitParseError,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, sanityCheck(&tt.config))
		})
	}
}
