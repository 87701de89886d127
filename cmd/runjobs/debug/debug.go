// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package debug contains the debug command, an interactive prompt for HCL job lists.
package debug

import (
	"context"
	"path/filepath"

	"github.com/matt-FFFFFF/runjobs/internal/config/hcl"
	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const dirArg = "dir"

// DebugCmd is the command that evaluates HCL expressions against a directory of `.runjobs.hcl` files.
var DebugCmd = &cli.Command{
	Name:  "debug",
	Usage: "Evaluate HCL expressions against a directory of " + hcl.ConfigFileExt + " files",
	Description: `Load every ` + hcl.ConfigFileExt + ` file in DIR and open an interactive prompt.
Each line is evaluated as an HCL expression, with variables, locals and functions available.
DIR defaults to the current directory.`,
	ArgsUsage: "[DIR]",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:  dirArg,
			Value: ".",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		dir := cmd.StringArg(dirArg)
		if dir == "" {
			dir = "."
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		cfg, err := hcl.BuildConfig(ctx, abs, abs, nil)
		if err != nil {
			ctxlog.Error(ctx, "failed to load HCL configuration", "dir", abs, "error", err)
			return cli.Exit("", 1)
		}

		hcl.EnterDebugMode(cfg, cmd.Root().Writer)

		return nil
	},
}
