// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrMissingCommand is returned when a job has no command.
	ErrMissingCommand = errors.New("command is required")
	// ErrInvalidTimeout is returned when a job timeout is zero or negative.
	ErrInvalidTimeout = errors.New("timeout must be a positive number of seconds")
	// ErrEmptyStdout is returned when a job sets an empty output file name.
	ErrEmptyStdout = errors.New("stdout must not be empty when set")
)

// RunContext is the shared, read only configuration of one batch run.
type RunContext struct {
	Workdir      string            // Base directory for job working directories.
	JobsFileDir  string            // Directory of the job list, base for output log paths.
	JobsFileName string            // Base name of the job list, used for default log names.
	Env          map[string]string // Extra environment variables for every job.
	RunID        string            // Identifies the run in logs and log file headers.
}

// JobSpec describes one job of the batch.
type JobSpec struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args" yaml:"args"`
	Workdir string            `json:"workdir,omitempty" yaml:"workdir,omitempty"`
	Stdout  string            `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Timeout *float64          `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Seconds, nil waits forever.
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Invalid is set by a loader when the job definition could not be used.
	// The job is reported as a configuration error instead of being run.
	Invalid error `json:"-" yaml:"-"`
}

// CommandLine returns the command followed by its arguments.
func (j JobSpec) CommandLine() []string {
	cl := make([]string, 0, len(j.Args)+1)
	cl = append(cl, j.Command)

	return append(cl, j.Args...)
}

// TimeoutDuration converts the timeout to a duration. Zero means no timeout.
func (j JobSpec) TimeoutDuration() time.Duration {
	if j.Timeout == nil {
		return 0
	}

	return time.Duration(*j.Timeout * float64(time.Second))
}

// Validate checks the fields that can be checked without touching the filesystem.
// All problems are reported together.
func (j JobSpec) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(j.Command) == "" {
		result = multierror.Append(result, ErrMissingCommand)
	}

	if j.Timeout != nil && *j.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w, got %v", ErrInvalidTimeout, *j.Timeout))
	}

	if j.Stdout != "" && strings.TrimSpace(j.Stdout) == "" {
		result = multierror.Append(result, ErrEmptyStdout)
	}

	if result == nil {
		return nil
	}

	result.ErrorFormat = ListFormatFunc

	return result
}

// ListFormatFunc formats multiple errors on a single line, separated by semicolons.
func ListFormatFunc(es []error) string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}

	return strings.Join(msgs, "; ")
}
