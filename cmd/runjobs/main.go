// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the runjobs command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/runjobs"
	"github.com/matt-FFFFFF/runjobs/cmd/runjobs/debug"
	"github.com/matt-FFFFFF/runjobs/cmd/runjobs/run"
	"github.com/matt-FFFFFF/runjobs/cmd/runjobs/show"
	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
	"github.com/matt-FFFFFF/runjobs/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		show.ShowCmd,
		debug.DebugCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "runjobs",
	Description: `runjobs runs a list of external commands one after another.
Every job runs in its own working directory with an optional timeout, and its merged
stdout and stderr are captured to a log file. A structured result is reported for every job.`,
	Usage:     "runjobs run jobs.json",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", runjobs.Version, runjobs.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Debug("command completed successfully")
}
