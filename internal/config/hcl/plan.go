// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/golden"
	"github.com/matt-FFFFFF/runjobs/internal/runbatch"
)

var (
	// ErrRunPlan is returned when the configuration cannot be evaluated.
	ErrRunPlan = errors.New("failed to evaluate HCL configuration")
	// ErrNoBatch is returned when the configuration has no batch block.
	ErrNoBatch = errors.New("no batch block found")
	// ErrTooManyBatches is returned when the configuration has more than one batch block.
	ErrTooManyBatches = errors.New("only one batch block is allowed")
)

// Plan is the evaluated result of a Config.
type Plan struct {
	Batches []*BatchBlock
	c       *Config
}

// RunPlan evaluates every block in the config.
func RunPlan(c *Config) (*Plan, error) {
	if err := c.RunPlan(); err != nil {
		return nil, errors.Join(ErrRunPlan, err)
	}

	return &Plan{
		Batches: golden.Blocks[*BatchBlock](c),
		c:       c,
	}, nil
}

// Batch returns the single batch of the plan.
func (p *Plan) Batch() (*BatchBlock, error) {
	switch len(p.Batches) {
	case 0:
		return nil, ErrNoBatch
	case 1:
		return p.Batches[0], nil
	default:
		names := make([]string, len(p.Batches))
		for i, b := range p.Batches {
			names[i] = b.Name()
		}

		return nil, fmt.Errorf("%w, found %v", ErrTooManyBatches, names)
	}
}

// LoadJobs reads the `.runjobs.hcl` files in dir and returns the jobs of their batch.
func LoadJobs(
	ctx context.Context,
	dir string,
	cliFlagAssignedVariables []golden.CliFlagAssignedVariables,
) ([]runbatch.JobSpec, error) {
	cfg, err := BuildConfig(ctx, dir, dir, cliFlagAssignedVariables)
	if err != nil {
		return nil, err
	}

	plan, err := RunPlan(cfg)
	if err != nil {
		return nil, err
	}

	batch, err := plan.Batch()
	if err != nil {
		return nil, err
	}

	return batch.JobSpecs(), nil
}
