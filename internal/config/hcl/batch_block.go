// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"github.com/Azure/golden"
	"github.com/matt-FFFFFF/runjobs/internal/runbatch"
	"github.com/zclconf/go-cty/cty"
)

const (
	batchBlockAddressLength = 2
	batchBlockName          = "batch"
)

var _ golden.ApplyBlock = (*BatchBlock)(nil)

// BatchBlock is a `batch "<name>"` block holding the ordered jobs of a run.
type BatchBlock struct {
	*golden.BaseBlock
	Description string      `hcl:"description,optional"`
	Jobs        []*JobBlock `hcl:"job,block"`
}

// Type returns the block type label, batch blocks only have a name.
func (b *BatchBlock) Type() string {
	return ""
}

// BlockType returns the HCL block keyword.
func (b *BatchBlock) BlockType() string {
	return batchBlockName
}

// AddressLength is the number of parts in the block address, `batch.<name>`.
func (b *BatchBlock) AddressLength() int {
	return batchBlockAddressLength
}

// CanExecutePrePlan reports that batch blocks are only evaluated during the plan.
func (b *BatchBlock) CanExecutePrePlan() bool {
	return false
}

// Apply does nothing, jobs are run by the batch runner once the plan is complete.
func (b *BatchBlock) Apply() error {
	return nil
}

// JobSpecs converts the job blocks to job specs, in order.
func (b *BatchBlock) JobSpecs() []runbatch.JobSpec {
	jobs := make([]runbatch.JobSpec, len(b.Jobs))
	for i, j := range b.Jobs {
		jobs[i] = j.JobSpec()
	}

	return jobs
}

// JobBlock is a `job` block nested in a batch.
type JobBlock struct {
	Command string            `hcl:"command,optional"`
	Args    []string          `hcl:"args,optional"`
	Workdir string            `hcl:"workdir,optional"`
	Stdout  string            `hcl:"stdout,optional"`
	Timeout float64           `hcl:"timeout,optional"`
	Env     map[string]string `hcl:"env,optional"`
}

// JobSpec converts the block to a job spec. Invalid is set when the job fails validation.
// A zero timeout means the job has no timeout.
func (j *JobBlock) JobSpec() runbatch.JobSpec {
	job := runbatch.JobSpec{
		Command: j.Command,
		Args:    j.Args,
		Workdir: j.Workdir,
		Stdout:  j.Stdout,
		Env:     j.Env,
	}

	if j.Timeout != 0 {
		timeout := j.Timeout
		job.Timeout = &timeout
	}

	if job.Args == nil {
		job.Args = []string{}
	}

	if err := job.Validate(); err != nil {
		job.Invalid = err
	}

	return job
}

func jobBlockCtyType() cty.Type {
	return cty.ObjectWithOptionalAttrs(map[string]cty.Type{
		"command": cty.String,
		"args":    cty.List(cty.String),
		"workdir": cty.String,
		"stdout":  cty.String,
		"timeout": cty.Number,
		"env":     cty.Map(cty.String),
	}, []string{
		"command",
		"args",
		"workdir",
		"stdout",
		"timeout",
		"env",
	})
}
