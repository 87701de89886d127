// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
	"github.com/spf13/afero"
)

var (
	// ErrCouldNotOpenLog is returned when the job log file could not be created.
	ErrCouldNotOpenLog = errors.New("could not open job log file")
)

// notADirectoryMessage is the config error reported for a missing or invalid job workdir.
const notADirectoryMessage = "Not a directory: "

// JobExecutor runs a single job and reports its result.
type JobExecutor struct {
	FS     afero.Fs
	Runner *ProcessRunner
}

// NewJobExecutor creates a JobExecutor on the operating system filesystem.
func NewJobExecutor(runner *ProcessRunner) *JobExecutor {
	return &JobExecutor{
		FS:     afero.NewOsFs(),
		Runner: runner,
	}
}

// Execute runs job number n.
// Problems with the job itself are recorded in the returned JobResult and never stop the caller.
func (e *JobExecutor) Execute(ctx context.Context, job JobSpec, rc RunContext, n int) *JobResult {
	cl := job.CommandLine()
	res := &JobResult{
		Number: n,
		Job:    job,
		Cmd:    strings.Join(cl, " "),
		Cwd:    ResolveWorkdir(job, rc),
	}

	logger := ctxlog.Logger(ctx).With("job", n)

	if job.Invalid != nil {
		logger.Warn("invalid job definition", "error", job.Invalid)
		res.ConfigError = job.Invalid.Error()

		return res
	}

	if err := job.Validate(); err != nil {
		logger.Warn("invalid job definition", "error", err)
		res.ConfigError = err.Error()

		return res
	}

	if ok, err := afero.IsDir(e.FS, res.Cwd); err != nil || !ok {
		logger.Warn("job workdir is not a directory", "cwd", res.Cwd)
		res.ConfigError = notADirectoryMessage + res.Cwd

		return res
	}

	res.Output = ResolveOutputPath(rc, job, n)

	f, err := e.FS.Create(res.Output)
	if err != nil {
		logger.Error("could not open job log file", "output", res.Output, "error", err)

		res.Output = ""
		res.Outcome = &Outcome{StartTime: time.Now()}
		res.Outcome.crash(errors.Join(ErrCouldNotOpenLog, err))

		return res
	}

	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("could not close job log file", "output", res.Output, "error", err)
		}
	}()

	logger.Info("running job", "cmd", res.Cmd, "cwd", res.Cwd)

	res.Outcome = e.Runner.Run(ctx, ProcessSpec{
		CommandLine: cl,
		Dir:         res.Cwd,
		Env:         mergeEnv(os.Environ(), rc.Env, job.Env),
		Timeout:     job.TimeoutDuration(),
		RunID:       rc.RunID,
	}, f)

	logger.Info("job finished", "status", res.Status().String(), "elapsed", res.ElapsedSeconds)

	return res
}
