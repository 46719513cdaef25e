// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package harness drives the external sampler around workload executions.
// Each capture session wraps exactly one workload process in a `perf record`
// invocation: on-CPU sessions sample cycles at a fixed frequency, off-CPU
// sessions trace scheduler switches. The sampler itself stays an external
// collaborator; the harness only configures it and owns the trace files.
package harness // import "github.com/open-telemetry/stackshape/harness"

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tklauser/numcpus"
	"golang.org/x/sync/errgroup"
)

// Mode selects the capture session kind.
type Mode string

const (
	// ModeOnCPU samples CPU cycles with call graphs.
	ModeOnCPU Mode = "oncpu"
	// ModeOffCPU traces scheduler switch events with call graphs.
	ModeOffCPU Mode = "offcpu"
)

// Session is one perf capture around a single workload execution.
type Session struct {
	// ID uniquely names the session.
	ID string
	// Mode is the capture kind.
	Mode Mode
	// Frequency is the on-CPU sampling frequency in Hz. Ignored for
	// off-CPU sessions, which are event driven.
	Frequency int
	// TracePath is where perf writes the trace artifact. Sessions must
	// never share a trace destination.
	TracePath string
	// Workload is the argv of the process to sample.
	Workload []string
}

// NewSession builds a session whose trace file lands in outDir under a
// unique, mode-tagged name.
func NewSession(mode Mode, frequency int, outDir string, workload []string) *Session {
	id := uuid.NewString()
	return &Session{
		ID:        id,
		Mode:      mode,
		Frequency: frequency,
		TracePath: filepath.Join(outDir,
			fmt.Sprintf("stackshape-%s-%s.perf.data", mode, id)),
		Workload: workload,
	}
}

// perfArgs builds the perf record argument list for this session.
func (s *Session) perfArgs() []string {
	args := []string{"record", "-g", "-o", s.TracePath}
	switch s.Mode {
	case ModeOffCPU:
		args = append(args, "-e", "sched:sched_switch")
	default:
		args = append(args, "-F", strconv.Itoa(s.Frequency))
	}
	args = append(args, "--")
	return append(args, s.Workload...)
}

// Command returns the perf invocation for this session. The workload's
// stdout and stderr pass through.
func (s *Session) Command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "perf", s.perfArgs()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func (s *Session) run(ctx context.Context) error {
	log.Infof("Starting %s capture session %s -> %s", s.Mode, s.ID, s.TracePath)
	if err := s.Command(ctx).Run(); err != nil {
		return fmt.Errorf("%s capture session %s: %w", s.Mode, s.ID, err)
	}
	log.Infof("Finished %s capture session %s", s.Mode, s.ID)
	return nil
}

// Run executes the sessions, sequentially by default or concurrently when
// parallel is set. Every session samples its own workload process instance,
// so the only shared-resource rule to enforce is distinct trace
// destinations.
func Run(ctx context.Context, parallel bool, sessions ...*Session) error {
	if err := checkDistinct(sessions); err != nil {
		return err
	}
	if cores, err := numcpus.GetPresent(); err == nil {
		log.Infof("Capturing %d session(s) on a host with %d present cores",
			len(sessions), cores)
	}

	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, s := range sessions {
			s := s
			g.Go(func() error { return s.run(gctx) })
		}
		return g.Wait()
	}
	for _, s := range sessions {
		if err := s.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func checkDistinct(sessions []*Session) error {
	seen := make(map[string]*Session, len(sessions))
	for _, s := range sessions {
		if prev, ok := seen[s.TracePath]; ok {
			return fmt.Errorf("sessions %s and %s share trace destination %s",
				prev.ID, s.ID, s.TracePath)
		}
		seen[s.TracePath] = s
	}
	return nil
}
