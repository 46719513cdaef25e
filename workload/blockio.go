// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/open-telemetry/stackshape/sink"
)

// ioBufferSize is the payload written and read back per cycle.
const ioBufferSize = 256 << 10

// BlockingIO performs count synchronous write/flush/read cycles against an
// unlinked temporary file and returns the number of completed cycles. The
// fdatasync after each write is the fixture's off-CPU suspension point: it
// takes the calling thread off the CPU while the flush completes, which is
// what the sched-switch capture session is there to observe.
//
// The scratch file's directory entry is removed right after creation, so no
// artifact can outlive the process while the open handle stays usable. A
// seek/write/sync/read fault ends the loop early but is not propagated:
// partial completion is acceptable for a fixture as long as the handle and
// buffer are released, which the defers guarantee on every exit path.
//
//go:noinline
func BlockingIO(count int) (cycles int, err error) {
	path := filepath.Join(os.TempDir(), "stackshape-"+uuid.NewString()+".dat")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fmt.Errorf("creating scratch file: %w", err)
	}
	defer f.Close()

	if err = os.Remove(path); err != nil {
		return 0, fmt.Errorf("unlinking scratch file: %w", err)
	}

	buf := make([]byte, ioBufferSize)
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}

	for i := 0; i < count; i++ {
		if cerr := ioCycle(f, buf); cerr != nil {
			log.Warnf("Blocking I/O cycle %d/%d failed: %v", i, count, cerr)
			break
		}
		cycles++
	}
	sink.Add(float64(buf[0]))
	return cycles, nil
}

// ioCycle writes the full buffer from the start of the file, forces it to
// stable storage and reads it back through the same handle.
//
//go:noinline
func ioCycle(f *os.File, buf []byte) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek before write: %w", err)
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := unix.Fdatasync(int(f.Fd())); err != nil {
		return fmt.Errorf("fdatasync: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek before read: %w", err)
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	return nil
}
