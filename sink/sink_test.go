// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinkAccumulates(t *testing.T) {
	Reset()
	require.Equal(t, 0.0, Value())

	Add(1.5)
	Add(2.25)
	require.Equal(t, 3.75, Value())

	Reset()
	require.Equal(t, 0.0, Value())
}
