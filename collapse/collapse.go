// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package collapse folds perf stack samples into collapsed-stack form
// ("root;child;leaf count"), the format downstream flamegraph renderers
// consume. It accepts either raw perf.data files, which are piped through
// `perf script`, or perf-script text directly.
package collapse // import "github.com/open-telemetry/stackshape/collapse"

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// perfDataMagic is the file magic of a perf.data file.
const perfDataMagic = "PERFILE2"

// Options controls how samples are folded.
type Options struct {
	// IncludeComm prefixes each stack with the process name from the
	// sample header, matching classic stackcollapse-perf output.
	IncludeComm bool
}

// FromFile loads stack samples from path as perf-script text. perf.data
// files are detected by magic and piped through `perf script`; anything else
// is assumed to already be perf-script text.
func FromFile(path string) (string, error) {
	isPerf, err := isPerfData(path)
	if err != nil {
		return "", err
	}
	if isPerf {
		return scriptOutput(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading trace %s: %w", path, err)
	}
	return string(raw), nil
}

func isPerfData(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening trace %s: %w", path, err)
	}
	defer f.Close()

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		// Too short to carry the magic, so not a perf.data file.
		return false, nil
	}
	return string(magic[:]) == perfDataMagic, nil
}

func scriptOutput(path string) (string, error) {
	out, err := exec.Command("perf", "script", "-i", path).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("perf script -i %s: %w: %s",
				path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("perf script -i %s: %w", path, err)
	}
	return string(out), nil
}

// Collapse folds perf-script text into stack to sample-count form. Samples
// are separated by blank lines; the first line of a sample is the event
// header, followed by one indented line per frame, leaf first.
func Collapse(text string, opts Options) map[string]uint64 {
	stacks := make(map[string]uint64)
	var frames []string
	comm := ""

	flush := func() {
		if len(frames) == 0 {
			return
		}
		// Frames arrive leaf first; fold root first.
		for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
			frames[i], frames[j] = frames[j], frames[i]
		}
		stack := strings.Join(frames, ";")
		if opts.IncludeComm && comm != "" {
			stack = comm + ";" + stack
		}
		stacks[stack]++
		frames = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "":
			flush()
			comm = ""
		case line[0] != ' ' && line[0] != '\t':
			// Event header: "comm pid timestamp: period event:".
			if fields := strings.Fields(line); len(fields) > 0 {
				comm = fields[0]
			}
		default:
			if sym, ok := parseFrame(line); ok {
				frames = append(frames, sym)
			}
		}
	}
	flush()
	return stacks
}

// parseFrame extracts the symbol name from one perf-script frame line of the
// form "<addr> <symbol>[+0x<off>] (<module>)".
func parseFrame(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	sym := fields[1:]
	if strings.HasPrefix(sym[len(sym)-1], "(") {
		sym = sym[:len(sym)-1]
	}
	if len(sym) == 0 {
		return "", false
	}
	name := strings.Join(sym, " ")
	if idx := strings.LastIndex(name, "+0x"); idx > 0 {
		name = name[:idx]
	}
	if name == "" || name == "[unknown]" {
		return "", false
	}
	return name, true
}

// WriteFolded writes stacks in folded form to w, sorted by stack so the
// output is reproducible.
func WriteFolded(w io.Writer, stacks map[string]uint64) error {
	keys := make([]string, 0, len(stacks))
	for stack := range stacks {
		keys = append(keys, stack)
	}
	sort.Strings(keys)
	for _, stack := range keys {
		if _, err := fmt.Fprintf(w, "%s %d\n", stack, stacks[stack]); err != nil {
			return fmt.Errorf("writing folded stacks: %w", err)
		}
	}
	return nil
}

// WriteFoldedFile writes stacks to path in folded form, zstd-compressed when
// the path ends in .zst.
func WriteFoldedFile(path string, stacks map[string]uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating folded output %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		if err := WriteFolded(zw, stacks); err != nil {
			zw.Close()
			f.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			f.Close()
			return fmt.Errorf("flushing zstd stream: %w", err)
		}
	} else if err := WriteFolded(f, stacks); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing folded output %s: %w", path, err)
	}
	return nil
}
