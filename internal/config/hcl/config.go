// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Azure/golden"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/spf13/afero"
)

// ConfigFileExt is the file name suffix of HCL job lists.
const ConfigFileExt = ".runjobs.hcl"

// supportedBlocks are the top level blocks a job list may contain, listed in error messages.
var supportedBlocks = []string{batchBlockName, "locals", "variable"}

var _ golden.Config = &Config{}

var (
	// ErrInitConfig is returned when the configuration cannot be initialized.
	ErrInitConfig = errors.New("failed to initialize HCL configuration")
	// ErrNoConfigFile is returned when a directory has no `.runjobs.hcl` file.
	ErrNoConfigFile = errors.New("no `" + ConfigFileExt + "` file found")
	// ErrParseConfigFile is returned when a `.runjobs.hcl` file cannot be parsed.
	ErrParseConfigFile = errors.New("failed to parse job list")
)

// Config is an evaluated set of `.runjobs.hcl` files.
type Config struct {
	*golden.BaseConfig
}

// UnsupportedBlockError is returned for a top level block that is not part of a job list.
type UnsupportedBlockError struct {
	BlockType string
	Range     hcl.Range
}

func (e *UnsupportedBlockError) Error() string {
	return fmt.Sprintf("unsupported block %q at %s, expected one of %s",
		e.BlockType, e.Range.String(), strings.Join(supportedBlocks, ", "))
}

// NewConfig creates a Config from already parsed blocks.
func NewConfig(
	ctx context.Context,
	baseDir string,
	cliFlagAssignedVariables []golden.CliFlagAssignedVariables,
	hclBlocks []*golden.HclBlock,
) (*Config, error) {
	cfg := &Config{
		BaseConfig: golden.NewBasicConfig(baseDir, "runjobs", "runjobs", nil, cliFlagAssignedVariables, ctx),
	}

	if err := golden.InitConfig(cfg, hclBlocks); err != nil {
		return cfg, errors.Join(ErrInitConfig, err)
	}

	return cfg, nil
}

// BuildConfig reads every `.runjobs.hcl` file in cfgDir into a Config.
func BuildConfig(
	ctx context.Context,
	baseDir, cfgDir string,
	cliFlagAssignedVariables []golden.CliFlagAssignedVariables,
) (*Config, error) {
	hclBlocks, err := readJobListDir(cfgDir)
	if err != nil {
		return nil, err
	}

	return NewConfig(ctx, baseDir, cliFlagAssignedVariables, hclBlocks)
}

// readJobListDir parses the job list files in dir. Problems in every file are reported together.
func readJobListDir(dir string) ([]*golden.HclBlock, error) {
	fs := FsFactory()

	// the pattern is constant so Glob cannot fail with ErrBadPattern
	matches, _ := afero.Glob(fs, filepath.Join(dir, "*"+ConfigFileExt))
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoConfigFile, dir)
	}

	var (
		blocks []*golden.HclBlock
		result *multierror.Error
	)

	for _, filename := range matches {
		fileBlocks, err := readJobListFile(fs, filename)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		blocks = append(blocks, fileBlocks...)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, errors.Join(ErrParseConfigFile, err)
	}

	return blocks, nil
}

// readJobListFile parses one file and keeps only the blocks golden has registered.
func readJobListFile(fs afero.Fs, filename string) ([]*golden.HclBlock, error) {
	content, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}

	readFile, diag := hclsyntax.ParseConfig(content, filename, hcl.InitialPos)
	if diag.HasErrors() {
		return nil, diag
	}

	writeFile, _ := hclwrite.ParseConfig(content, filename, hcl.InitialPos)
	readBody := readFile.Body.(*hclsyntax.Body) //nolint:forcetypeassert

	var (
		blocks []*golden.HclBlock
		result *multierror.Error
	)

	for _, b := range golden.AsHclBlocks(readBody.Blocks, writeFile.Body().Blocks()) {
		if !golden.IsBlockTypeWanted(b.Type) {
			result = multierror.Append(result, &UnsupportedBlockError{BlockType: b.Type, Range: b.Range()})
			continue
		}

		blocks = append(blocks, b)
	}

	return blocks, result.ErrorOrNil()
}
