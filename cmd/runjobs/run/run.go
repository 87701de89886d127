// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the run command, which runs every job in a job list.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/runjobs/internal/config"
	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
	"github.com/matt-FFFFFF/runjobs/internal/runbatch"
	"github.com/matt-FFFFFF/runjobs/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const (
	jobsFileArg        = "jobsfile"
	outputFlag         = "output"
	formatFlag         = "format"
	workdirFlag        = "workdir"
	envFileFlag        = "env-file"
	successDetailsFlag = "success-details"
	defaultJobsFile    = "jobs.json"
	cliExitStr         = ""
)

// ErrJobsFileNotFound is returned when the job list does not exist.
var ErrJobsFileNotFound = errors.New("cannot find job file")

// RunCmd is the command that runs the jobs of a job list.
var RunCmd = NewRunCmd()

// NewRunCmd creates the run command.
func NewRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run every job in a job list, one after another",
		Description: `Run the jobs defined in JOBSFILE in order and report a result for each one.
JOBSFILE defaults to jobs.json in the current directory. JSON (.json), YAML (.yaml, .yml)
and HCL (.runjobs.hcl) job lists are supported.

Each job's stdout and stderr are written to a log file next to the job list,
named <jobsfile>-job-<n>-console.log unless the job sets "stdout".

Job files can also be fetched with Hashicorp's go-getter syntax, see https://github.com/hashicorp/go-getter.
Fetched files are kept in a temporary directory, which is also where their logs are written.

The exit status is 1 when any job fails, times out, crashes or cannot be started.`,
		ArgsUsage: "[JOBSFILE]",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:  jobsFileArg,
				Value: defaultJobsFile,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      outputFlag,
				Aliases:   []string{"o"},
				Usage:     "Write the results to this file instead of stdout",
				TakesFile: true,
				OnlyOnce:  true,
				Sources:   cli.EnvVars("RUNJOBS_OUTPUT"),
			},
			&cli.StringFlag{
				Name:     formatFlag,
				Usage:    "Results format, one of " + strings.Join(runbatch.Formats(), ", "),
				Value:    string(runbatch.FormatJSON),
				OnlyOnce: true,
				Sources:  cli.EnvVars("RUNJOBS_FORMAT"),
				Validator: func(s string) error {
					_, err := runbatch.ParseFormat(s)
					return err
				},
			},
			&cli.StringFlag{
				Name:      workdirFlag,
				Usage:     "Base directory for job working directories, defaults to the directory of the job list",
				TakesFile: true,
				OnlyOnce:  true,
				Sources:   cli.EnvVars("RUNJOBS_WORKDIR"),
			},
			&cli.StringFlag{
				Name:      envFileFlag,
				Usage:     "Load extra environment variables for every job from this dotenv file",
				TakesFile: true,
				OnlyOnce:  true,
				Sources:   cli.EnvVars("RUNJOBS_ENV_FILE"),
			},
			&cli.BoolFlag{
				Name:        successDetailsFlag,
				Aliases:     []string{"success"},
				Usage:       "Include the working directory and log file of successful jobs in text output",
				DefaultText: "false",
				Value:       false,
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	format, err := runbatch.ParseFormat(cmd.String(formatFlag))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	src := cmd.StringArg(jobsFileArg)
	if src == "" {
		src = defaultJobsFile
	}

	jobsFile, err := resolveJobsFile(ctx, src)
	if err != nil {
		if errors.Is(err, ErrJobsFileNotFound) {
			fmt.Fprintf(cmd.Root().ErrWriter, "Cannot find job file: %s\n", jobsFile) //nolint:errcheck
			return cli.Exit(cliExitStr, 1)
		}

		logger.Error("failed to get job file", "src", src, "error", err)

		return cli.Exit(cliExitStr, 1)
	}

	jobs, err := config.LoadJobsFile(ctx, jobsFile)
	if err != nil {
		logger.Error("failed to load job file", "path", jobsFile, "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	rc, err := newRunContext(cmd, jobsFile)
	if err != nil {
		logger.Error("failed to prepare run", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	results := runbatch.NewBatchRunner(sigCh).RunAll(ctx, jobs, rc)

	opts := runbatch.DefaultOutputOptions()
	opts.ShowSuccessDetails = cmd.Bool(successDetailsFlag)

	if err := writeResults(cmd.Root().Writer, cmd.String(outputFlag), results, format, opts); err != nil {
		logger.Error("failed to write results", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	if results.HasFailure() {
		logger.Error("some jobs did not succeed, see the results for details")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// resolveJobsFile returns the local, absolute path of the job list.
// When the file does not exist the path is returned along with ErrJobsFileNotFound.
func resolveJobsFile(ctx context.Context, src string) (string, error) {
	path := src

	if isRemote(src) {
		var err error
		if path, err = fetchJobsFile(ctx, src); err != nil {
			return "", err
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, err
	}

	if fi, err := os.Stat(abs); err != nil || fi.IsDir() {
		return abs, ErrJobsFileNotFound
	}

	return abs, nil
}

func newRunContext(cmd *cli.Command, jobsFile string) (runbatch.RunContext, error) {
	rc := runbatch.RunContext{
		Workdir:      filepath.Dir(jobsFile),
		JobsFileDir:  filepath.Dir(jobsFile),
		JobsFileName: filepath.Base(jobsFile),
		RunID:        uuid.NewString(),
	}

	if wd := cmd.String(workdirFlag); wd != "" {
		abs, err := filepath.Abs(wd)
		if err != nil {
			return rc, err
		}

		rc.Workdir = abs
	}

	if envFile := cmd.String(envFileFlag); envFile != "" {
		env, err := config.LoadEnvFile(envFile)
		if err != nil {
			return rc, err
		}

		rc.Env = env
	}

	return rc, nil
}

// writeResults writes the results to the named file, or to w when name is empty.
func writeResults(
	w io.Writer, name string, results runbatch.Results, format runbatch.Format, opts *runbatch.OutputOptions,
) error {
	if name == "" {
		return runbatch.WriteResults(w, results, format, opts)
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}

	if err := runbatch.WriteResults(f, results, format, opts); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
