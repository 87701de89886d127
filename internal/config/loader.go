// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/runjobs/internal/config/hcl"
	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
	"github.com/matt-FFFFFF/runjobs/internal/runbatch"
	"github.com/spf13/afero"
)

// Format is the format of a job list.
type Format int

const (
	// FormatJSON is a JSON array of jobs.
	FormatJSON Format = iota
	// FormatYAML is a YAML sequence of jobs.
	FormatYAML
	// FormatHCL is a directory of `.runjobs.hcl` files with a single batch block.
	FormatHCL
)

var (
	// ErrUnknownFormat is returned when the job list format cannot be determined from its name.
	ErrUnknownFormat = errors.New("unknown job list format")
	// ErrReadJobsFile is returned when the job list cannot be read.
	ErrReadJobsFile = errors.New("failed to read job list")
	// ErrInvalidJobsFile is returned when the job list is not a list of jobs.
	ErrInvalidJobsFile = errors.New("job list must be an array of jobs")
	// ErrInvalidJob is returned when a single job entry cannot be decoded.
	ErrInvalidJob = errors.New("invalid job definition")
	// ErrMissingArgs is returned when a job has no args.
	ErrMissingArgs = errors.New("args is required")
)

// jobDefinition is the decoded form of one entry. Pointers tell missing fields apart from empty ones.
type jobDefinition struct {
	Command *string           `json:"command"`
	Args    *[]string         `json:"args"`
	Workdir *string           `json:"workdir"`
	Stdout  *string           `json:"stdout"`
	Timeout *float64          `json:"timeout"`
	Env     map[string]string `json:"env"`
}

// DetectFormat returns the format of the job list at path, based on its extension.
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(path)

	switch {
	case strings.HasSuffix(name, ".hcl"):
		return FormatHCL, nil
	case filepath.Ext(name) == ".json":
		return FormatJSON, nil
	case filepath.Ext(name) == ".yaml", filepath.Ext(name) == ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// LoadJobsFile reads the job list at path.
func LoadJobsFile(ctx context.Context, path string) ([]runbatch.JobSpec, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "loading job list", "path", path, "format", format)

	if format == FormatHCL {
		return hcl.LoadJobs(ctx, filepath.Dir(path), nil)
	}

	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadJobsFile, err)
	}

	return ParseJobs(data, format)
}

// ParseJobs decodes a JSON or YAML job list.
// Jobs that cannot be used are returned with their Invalid field set.
func ParseJobs(data []byte, format Format) ([]runbatch.JobSpec, error) {
	var entries []json.RawMessage

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJobsFile, err)
		}
	case FormatYAML:
		var items []any
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJobsFile, err)
		}

		entries = make([]json.RawMessage, len(items))
		for i, item := range items {
			// entries that cannot be represented stay nil and fail to decode below
			entries[i], _ = json.Marshal(item)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}

	jobs := make([]runbatch.JobSpec, len(entries))
	for i, entry := range entries {
		jobs[i] = decodeJob(entry)
	}

	return jobs, nil
}

// decodeJob decodes one entry. Values of the wrong type make the job invalid.
func decodeJob(entry json.RawMessage) runbatch.JobSpec {
	var def jobDefinition

	if err := json.Unmarshal(entry, &def); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			switch typeErr.Field {
			case "":
				err = fmt.Errorf("job must be an object, got %s", typeErr.Value)
			default:
				err = fmt.Errorf("%s must be of type %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
			}
		}

		return runbatch.JobSpec{Invalid: fmt.Errorf("%w: %w", ErrInvalidJob, err)}
	}

	job := def.toJobSpec()

	var result *multierror.Error

	if err := job.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if def.Args == nil {
		result = multierror.Append(result, ErrMissingArgs)
	}

	if result != nil {
		result.ErrorFormat = runbatch.ListFormatFunc
		job.Invalid = result
	}

	return job
}

func (d jobDefinition) toJobSpec() runbatch.JobSpec {
	job := runbatch.JobSpec{
		Timeout: d.Timeout,
		Env:     d.Env,
	}

	if d.Command != nil {
		job.Command = *d.Command
	}

	if d.Args != nil {
		job.Args = *d.Args
		if job.Args == nil {
			job.Args = []string{}
		}
	}

	if d.Workdir != nil {
		job.Workdir = *d.Workdir
	}

	if d.Stdout != nil {
		job.Stdout = *d.Stdout
	}

	return job
}
