// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show contains the show command, which displays previously saved results.
package show

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/runjobs/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	fileArg            = "file"
	formatFlag         = "format"
	successDetailsFlag = "success-details"
)

var (
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrNoFile is returned when no results file is given.
	ErrNoFile = errors.New("a results file is required")
)

// ShowCmd is the command that shows previously saved results.
var ShowCmd = NewShowCmd()

// NewShowCmd creates the show command.
func NewShowCmd() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show previously saved results",
		Description: "Show results saved by `runjobs run -o FILE`. JSON and YAML result files are supported.",
		ArgsUsage:   "RESULTSFILE",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: fileArg,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     formatFlag,
				Usage:    "Output format, one of " + strings.Join(runbatch.Formats(), ", "),
				Value:    string(runbatch.FormatText),
				OnlyOnce: true,
				Sources:  cli.EnvVars("RUNJOBS_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    successDetailsFlag,
				Aliases: []string{"success"},
				Usage:   "Include the working directory and log file of successful jobs in text output",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	name := cmd.StringArg(fileArg)
	if name == "" {
		return cli.Exit(ErrNoFile.Error(), 1)
	}

	format, err := runbatch.ParseFormat(cmd.String(formatFlag))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	file, err := os.Open(name)
	if err != nil {
		return cli.Exit(errors.Join(ErrReadFile, err).Error(), 1)
	}
	defer file.Close() //nolint:errcheck

	results, err := runbatch.ReadResults(file, inputFormat(name))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	opts := runbatch.DefaultOutputOptions()
	opts.ShowSuccessDetails = cmd.Bool(successDetailsFlag)

	if err := runbatch.WriteResults(cmd.Root().Writer, results, format, opts); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// inputFormat guesses the format of a results file from its extension, defaulting to JSON.
func inputFormat(name string) runbatch.Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return runbatch.FormatYAML
	default:
		return runbatch.FormatJSON
	}
}
