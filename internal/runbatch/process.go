// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matt-FFFFFF/runjobs/internal/commandinpath"
	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
	"github.com/matt-FFFFFF/runjobs/internal/proctree"
)

const logSeparatorWidth = 80

var logSeparator = strings.Repeat("-", logSeparatorWidth)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrTimeoutExceeded is returned when the process runs for longer than its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrRunCancelled is returned when the run is cancelled while the process is running.
	ErrRunCancelled = errors.New("run cancelled")
	// ErrWaitFailed is returned when waiting for the process failed.
	ErrWaitFailed = errors.New("failed to wait for process")
	// ErrTerminatedBySignal is returned when the process was terminated by a signal it did not handle.
	ErrTerminatedBySignal = errors.New("process terminated by signal")
)

// ProcessSpec is everything needed to start one process.
type ProcessSpec struct {
	CommandLine []string      // The command followed by its arguments.
	Dir         string        // Working directory, must exist.
	Env         []string      // Environment in KEY=value form. Nil inherits the current environment.
	Timeout     time.Duration // Zero waits forever.
	RunID       string        // Written to the log header when set.
}

// Outcome describes how a process ended.
// Exactly one of ReturnCode, TimedOut and Crashed is set.
type Outcome struct {
	StartTime      time.Time `json:"start_time" yaml:"start_time"`
	ReturnCode     *int      `json:"return_code" yaml:"return_code"`
	TimedOut       bool      `json:"timed_out" yaml:"timed_out"`
	Crashed        bool      `json:"crashed" yaml:"crashed"`
	ElapsedSeconds float64   `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Error          string    `json:"error,omitempty" yaml:"error,omitempty"`
}

func (o *Outcome) crash(err error) {
	o.ReturnCode = nil
	o.TimedOut = false
	o.Crashed = true
	o.Error = err.Error()
}

// ProcessRunner starts processes and waits for them to finish.
type ProcessRunner struct {
	// Signals received here are forwarded to the running process.
	// A nil channel forwards nothing.
	Signals <-chan os.Signal
	// Lookup resolves the executable for a command relative to a directory.
	Lookup func(command, dir string) (string, error)
	// KillTree kills a process and its descendants.
	KillTree func(ctx context.Context, pid int) error
}

// NewProcessRunner creates a ProcessRunner that forwards the given signals to its processes.
func NewProcessRunner(signals <-chan os.Signal) *ProcessRunner {
	return &ProcessRunner{
		Signals:  signals,
		Lookup:   commandinpath.Find,
		KillTree: proctree.Kill,
	}
}

// Run starts the process described by spec with stdout and stderr both written to sink,
// then waits for it to exit, time out or be cancelled through ctx.
// A header is written to sink before the process starts and a footer once the outcome is known.
// Run never returns an error: every failure is described by the returned Outcome.
func (r *ProcessRunner) Run(ctx context.Context, spec ProcessSpec, sink io.Writer) *Outcome {
	logger := ctxlog.Logger(ctx).With("cmd", strings.Join(spec.CommandLine, " "))

	start := time.Now()
	out := &Outcome{StartTime: start}

	writeHeader(sink, start, spec)

	defer func() {
		out.ElapsedSeconds = time.Since(start).Seconds()
		writeFooter(sink, out)
	}()

	if err := ctx.Err(); err != nil {
		out.crash(errors.Join(ErrRunCancelled, err))
		return out
	}

	if len(spec.CommandLine) == 0 {
		out.crash(ErrMissingCommand)
		return out
	}

	path, err := r.lookup(spec.CommandLine[0], spec.Dir)
	if err != nil {
		logger.Debug("command lookup failed", "error", err)
		out.crash(err)

		return out
	}

	w, release, err := outputFile(sink)
	if err != nil {
		out.crash(err)
		return out
	}

	logger.Debug("starting process", "path", path, "cwd", spec.Dir, "timeout", spec.Timeout)

	ps, err := os.StartProcess(path, spec.CommandLine, &os.ProcAttr{
		Dir:   spec.Dir,
		Env:   spec.Env,
		Files: []*os.File{os.Stdin, w, w},
	})
	if err != nil {
		release()
		out.crash(errors.Join(ErrCouldNotStartProcess, err))

		return out
	}

	logger = logger.With("pid", ps.Pid)
	logger.Debug("process started")

	// done is closed once the process has been reaped.
	done := make(chan struct{})
	// killed receives the reason the watchdog killed the process.
	killed := make(chan error, 1)
	watchdogExited := make(chan struct{})

	var timeout <-chan time.Time

	if spec.Timeout > 0 {
		t := time.NewTimer(spec.Timeout)
		defer t.Stop()

		timeout = t.C
	}

	go func() {
		defer close(watchdogExited)

		for {
			select {
			case s := <-r.Signals:
				logger.Info("forwarding signal to process", "signal", s.String())

				if err := ps.Signal(s); err != nil {
					logger.Debug("failed to send signal", "signal", s.String(), "error", err)
				}

			case <-timeout:
				logger.Info("timeout exceeded, killing process tree", "timeout", spec.Timeout)
				killed <- fmt.Errorf("%w after %s", ErrTimeoutExceeded, spec.Timeout)
				r.kill(ctx, ps)

				return

			case <-ctx.Done():
				logger.Info("run cancelled, killing process tree")
				killed <- errors.Join(ErrRunCancelled, context.Cause(ctx))
				r.kill(ctx, ps)

				return

			case <-done:
				return
			}
		}
	}()

	state, waitErr := ps.Wait()

	close(done)
	<-watchdogExited
	release()

	select {
	case reason := <-killed:
		if errors.Is(reason, ErrTimeoutExceeded) {
			out.TimedOut = true
			break
		}

		out.crash(reason)

	default:
		switch {
		case waitErr != nil:
			out.crash(errors.Join(ErrWaitFailed, waitErr))
		case !state.Exited():
			out.crash(fmt.Errorf("%w: %s", ErrTerminatedBySignal, state.String()))
		default:
			code := state.ExitCode()
			out.ReturnCode = &code
		}
	}

	logger.Debug("process finished", "returnCode", formatReturnCode(out.ReturnCode),
		"timedOut", out.TimedOut, "crashed", out.Crashed)

	return out
}

func (r *ProcessRunner) lookup(command, dir string) (string, error) {
	if r.Lookup == nil {
		return commandinpath.Find(command, dir)
	}

	return r.Lookup(command, dir)
}

// kill kills the process tree, falling back to the process alone.
// Killing must finish even when ctx is already cancelled.
func (r *ProcessRunner) kill(ctx context.Context, ps *os.Process) {
	ctx = context.WithoutCancel(ctx)
	logger := ctxlog.Logger(ctx)

	killTree := r.KillTree
	if killTree == nil {
		killTree = proctree.Kill
	}

	err := killTree(ctx, ps.Pid)
	if err == nil {
		logger.Debug("process tree killed", "pid", ps.Pid)
		return
	}

	logger.Warn("could not kill process tree, killing process", "pid", ps.Pid, "error", err)

	if err := ps.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Error("process kill error", "pid", ps.Pid, "error", err)
	}
}

// outputFile returns the file the process should write to, along with
// a function that must be called once the process has exited.
// Files are handed to the process directly, any other writer is fed from a pipe.
func outputFile(sink io.Writer) (*os.File, func(), error) {
	if f, ok := sink.(*os.File); ok {
		return f, func() {}, nil
	}

	rd, wr, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	copied := make(chan struct{})

	go func() {
		defer close(copied)

		_, _ = io.Copy(sink, rd)
		_ = rd.Close()
	}()

	return wr, func() {
		_ = wr.Close()
		<-copied
	}, nil
}

func writeHeader(w io.Writer, start time.Time, spec ProcessSpec) {
	fmt.Fprintf(w, "start_time: %s\n", start.Format(time.RFC3339Nano)) //nolint:errcheck
	fmt.Fprintf(w, "cmd: %s\n", strings.Join(spec.CommandLine, " "))   //nolint:errcheck
	fmt.Fprintf(w, "cwd: %s\n", spec.Dir)                              //nolint:errcheck

	if spec.RunID != "" {
		fmt.Fprintf(w, "run_id: %s\n", spec.RunID) //nolint:errcheck
	}

	fmt.Fprintln(w, logSeparator) //nolint:errcheck
}

func writeFooter(w io.Writer, out *Outcome) {
	fmt.Fprintln(w, logSeparator)                                         //nolint:errcheck
	fmt.Fprintf(w, "return_code: %s\n", formatReturnCode(out.ReturnCode)) //nolint:errcheck
	fmt.Fprintf(w, "timed_out: %t\n", out.TimedOut)                       //nolint:errcheck
	fmt.Fprintf(w, "crashed: %t\n", out.Crashed)                          //nolint:errcheck
	fmt.Fprintf(w, "elapsed_seconds: %.3f\n", out.ElapsedSeconds)         //nolint:errcheck

	if out.Error != "" {
		fmt.Fprintf(w, "error: %s\n", out.Error) //nolint:errcheck
	}
}

func formatReturnCode(rc *int) string {
	if rc == nil {
		return "null"
	}

	return strconv.Itoa(*rc)
}
