// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func runProcess(t *testing.T, ctx context.Context, r *ProcessRunner, spec ProcessSpec) (*Outcome, string) {
	t.Helper()

	if spec.Dir == "" {
		spec.Dir = t.TempDir()
	}

	var buf bytes.Buffer

	out := r.Run(ctx, spec, &buf)
	require.NotNil(t, out)

	return out, buf.String()
}

func TestProcessRunner_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	out, log := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"echo", "hello"},
		Dir:         dir,
		RunID:       "run-1",
	})

	require.NotNil(t, out.ReturnCode)
	assert.Equal(t, 0, *out.ReturnCode)
	assert.False(t, out.TimedOut)
	assert.False(t, out.Crashed)
	assert.Empty(t, out.Error)
	assert.GreaterOrEqual(t, out.ElapsedSeconds, 0.0)
	assert.False(t, out.StartTime.IsZero())

	head, rest, ok := strings.Cut(log, logSeparator+"\n")
	require.True(t, ok, "log has no header separator")
	assert.Contains(t, head, "start_time: ")
	assert.Contains(t, head, "cmd: echo hello\n")
	assert.Contains(t, head, "cwd: "+dir+"\n")
	assert.Contains(t, head, "run_id: run-1\n")

	body, footer, ok := strings.Cut(rest, logSeparator+"\n")
	require.True(t, ok, "log has no footer separator")
	assert.Equal(t, "hello\n", body)
	assert.Contains(t, footer, "return_code: 0\n")
	assert.Contains(t, footer, "timed_out: false\n")
	assert.Contains(t, footer, "crashed: false\n")
	assert.Contains(t, footer, "elapsed_seconds: ")
}

func TestProcessRunner_ExitCode(t *testing.T) {
	defer goleak.VerifyNone(t)

	out, log := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"sh", "-c", "exit 3"},
	})

	require.NotNil(t, out.ReturnCode)
	assert.Equal(t, 3, *out.ReturnCode)
	assert.False(t, out.Crashed)
	assert.Contains(t, log, "return_code: 3\n")
}

func TestProcessRunner_MergesStdoutAndStderr(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, log := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"sh", "-c", "echo out; echo err >&2"},
	})

	assert.Contains(t, log, "out\nerr\n")
}

func TestProcessRunner_Env(t *testing.T) {
	defer goleak.VerifyNone(t)

	out, log := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"sh", "-c", "echo \"value=$RUNJOBS_TEST_VALUE\""},
		Env:         mergeEnv(os.Environ(), map[string]string{"RUNJOBS_TEST_VALUE": "42"}),
	})

	require.NotNil(t, out.ReturnCode)
	assert.Contains(t, log, "value=42\n")
}

func TestProcessRunner_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	out, log := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"sleep", "10"},
		Timeout:     200 * time.Millisecond,
	})

	assert.True(t, out.TimedOut)
	assert.Nil(t, out.ReturnCode)
	assert.False(t, out.Crashed)
	assert.GreaterOrEqual(t, out.ElapsedSeconds, 0.2)
	assert.Less(t, out.ElapsedSeconds, 5.0)
	assert.Contains(t, log, "return_code: null\n")
	assert.Contains(t, log, "timed_out: true\n")
}

func TestProcessRunner_TimeoutKillsDescendants(t *testing.T) {
	defer goleak.VerifyNone(t)

	// The pipe only reaches EOF once the backgrounded sleep has exited too.
	out, _ := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"sh", "-c", "sleep 30 & wait"},
		Timeout:     200 * time.Millisecond,
	})

	assert.True(t, out.TimedOut)
	assert.Less(t, out.ElapsedSeconds, 10.0)
}

func TestProcessRunner_NoTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	out, _ := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"sh", "-c", "sleep 0.3"},
	})

	require.NotNil(t, out.ReturnCode)
	assert.Equal(t, 0, *out.ReturnCode)
	assert.False(t, out.TimedOut)
}

func TestProcessRunner_CommandNotFound(t *testing.T) {
	defer goleak.VerifyNone(t)

	out, log := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"runjobs-command-that-does-not-exist"},
	})

	assert.True(t, out.Crashed)
	assert.Nil(t, out.ReturnCode)
	assert.Contains(t, out.Error, "command not found")
	assert.Contains(t, log, "crashed: true\n")
	assert.Contains(t, log, "error: ")
}

func TestProcessRunner_EmptyCommandLine(t *testing.T) {
	out, _ := runProcess(t, testContext(t), NewProcessRunner(nil), ProcessSpec{})

	assert.True(t, out.Crashed)
	assert.Equal(t, ErrMissingCommand.Error(), out.Error)
}

func TestProcessRunner_CancelledBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	out, _ := runProcess(t, ctx, NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"echo", "never"},
	})

	assert.True(t, out.Crashed)
	assert.Contains(t, out.Error, ErrRunCancelled.Error())
}

func TestProcessRunner_CancelledWhileRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(testContext(t))
	timer := time.AfterFunc(200*time.Millisecond, cancel)

	defer timer.Stop()

	out, _ := runProcess(t, ctx, NewProcessRunner(nil), ProcessSpec{
		CommandLine: []string{"sleep", "10"},
	})

	assert.True(t, out.Crashed)
	assert.False(t, out.TimedOut)
	assert.Nil(t, out.ReturnCode)
	assert.Contains(t, out.Error, ErrRunCancelled.Error())
	assert.Less(t, out.ElapsedSeconds, 5.0)
}

func TestProcessRunner_ForwardsSignals(t *testing.T) {
	defer goleak.VerifyNone(t)

	sigCh := make(chan os.Signal, 1)
	sigCh <- syscall.SIGTERM

	out, _ := runProcess(t, testContext(t), NewProcessRunner(sigCh), ProcessSpec{
		CommandLine: []string{"sleep", "10"},
	})

	assert.True(t, out.Crashed)
	assert.Nil(t, out.ReturnCode)
	assert.Contains(t, out.Error, ErrTerminatedBySignal.Error())
}

func TestProcessRunner_KillTreeFallback(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewProcessRunner(nil)
	called := false
	r.KillTree = func(context.Context, int) error {
		called = true
		return errors.New("boom")
	}

	out, _ := runProcess(t, testContext(t), r, ProcessSpec{
		CommandLine: []string{"sleep", "10"},
		Timeout:     100 * time.Millisecond,
	})

	assert.True(t, called)
	assert.True(t, out.TimedOut)
	assert.Less(t, out.ElapsedSeconds, 5.0)
}

func TestProcessRunner_FileSink(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	f, err := os.CreateTemp(dir, "log")
	require.NoError(t, err)

	out := NewProcessRunner(nil).Run(testContext(t), ProcessSpec{
		CommandLine: []string{"sh", "-c", "echo one; echo two >&2"},
		Dir:         dir,
	}, f)
	require.NoError(t, f.Close())

	require.NotNil(t, out.ReturnCode)

	b, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	log := string(b)
	assert.Contains(t, log, logSeparator+"\none\ntwo\n"+logSeparator+"\n")
	assert.True(t, strings.HasPrefix(log, "start_time: "))
	assert.Contains(t, log, "crashed: false\n")
}
