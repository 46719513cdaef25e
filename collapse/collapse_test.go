// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package collapse

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const scriptText = `stackshape  4242 171717.100000:   10101010 cycles:
	    55de92 workload.Innermost+0x1f (/usr/bin/stackshape)
	    55df01 workload.BranchA (/usr/bin/stackshape)
	    55e012 workload.Outer1 (/usr/bin/stackshape)
	    55e1a0 main.main (/usr/bin/stackshape)

stackshape  4242 171717.200000:   10101010 cycles:
	    55de92 workload.Innermost+0x2c (/usr/bin/stackshape)
	    55df01 workload.BranchA (/usr/bin/stackshape)
	    55e012 workload.Outer1 (/usr/bin/stackshape)
	    55e1a0 main.main (/usr/bin/stackshape)

stackshape  4242 171717.300000:   10101010 cycles:
	    7f8a92 [unknown] ([unknown])
	    55de92 workload.Innermost (/usr/bin/stackshape)
	    55e030 workload.Outer2 (/usr/bin/stackshape)
	    55e1a0 main.main (/usr/bin/stackshape)
`

func TestCollapse(t *testing.T) {
	stacks := Collapse(scriptText, Options{})
	require.Equal(t, map[string]uint64{
		"main.main;workload.Outer1;workload.BranchA;workload.Innermost": 2,
		"main.main;workload.Outer2;workload.Innermost":                  1,
	}, stacks)
}

func TestCollapseIncludeComm(t *testing.T) {
	stacks := Collapse(scriptText, Options{IncludeComm: true})
	require.Equal(t, uint64(2),
		stacks["stackshape;main.main;workload.Outer1;workload.BranchA;workload.Innermost"])
}

func TestCollapseEmptyInput(t *testing.T) {
	require.Empty(t, Collapse("", Options{}))
	require.Empty(t, Collapse("\n\n", Options{}))
}

func TestParseFrame(t *testing.T) {
	for _, tt := range []struct {
		name string
		line string

		want   string
		wantOK bool
	}{
		{
			name:   "symbol with offset and module",
			line:   "\t    55de92 workload.Innermost+0x1f (/usr/bin/stackshape)",
			want:   "workload.Innermost",
			wantOK: true,
		},
		{
			name:   "symbol with spaces",
			line:   "\t    7fa2 std::vector<int> foo(int) (/usr/lib/libfoo.so)",
			want:   "std::vector<int> foo(int)",
			wantOK: true,
		},
		{
			name: "unknown symbol dropped",
			line: "\t    7f8a92 [unknown] ([unknown])",
		},
		{
			name: "address only",
			line: "\t    7f8a92",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseFrame(tt.line)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIsPerfData(t *testing.T) {
	dir := t.TempDir()

	perfPath := filepath.Join(dir, "trace.perf.data")
	require.NoError(t, os.WriteFile(perfPath, []byte("PERFILE2\x00\x00"), 0o600))
	isPerf, err := isPerfData(perfPath)
	require.NoError(t, err)
	require.True(t, isPerf)

	textPath := filepath.Join(dir, "trace.txt")
	require.NoError(t, os.WriteFile(textPath, []byte(scriptText), 0o600))
	isPerf, err = isPerfData(textPath)
	require.NoError(t, err)
	require.False(t, isPerf)

	shortPath := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(shortPath, []byte("abc"), 0o600))
	isPerf, err = isPerfData(shortPath)
	require.NoError(t, err)
	require.False(t, isPerf)
}

func TestFromFilePlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, os.WriteFile(path, []byte(scriptText), 0o600))

	text, err := FromFile(path)
	require.NoError(t, err)
	require.Equal(t, scriptText, text)
}

func TestWriteFoldedSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFolded(&buf, map[string]uint64{
		"main;b": 2,
		"main;a": 5,
	}))
	require.Equal(t, "main;a 5\nmain;b 2\n", buf.String())
}

func TestWriteFoldedFileZstd(t *testing.T) {
	stacks := Collapse(scriptText, Options{})
	path := filepath.Join(t.TempDir(), "trace.folded.zst")
	require.NoError(t, WriteFoldedFile(path, stacks))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)

	var plain bytes.Buffer
	require.NoError(t, WriteFolded(&plain, stacks))
	require.Equal(t, plain.String(), string(decoded))
	require.True(t, strings.Contains(plain.String(), "workload.Innermost"))
}
