// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"slices"
)

// Status summarises how a job ended.
type Status int

const (
	// StatusSucceeded is a job that exited with return code zero.
	StatusSucceeded Status = iota
	// StatusFailed is a job that exited with a non zero return code.
	StatusFailed
	// StatusTimedOut is a job that was killed after exceeding its timeout.
	StatusTimedOut
	// StatusCrashed is a job that could not be started or did not exit normally.
	StatusCrashed
	// StatusConfigError is a job that was never started because its definition was unusable.
	StatusConfigError
)

var statusNames = map[Status]string{
	StatusSucceeded:   "succeeded",
	StatusFailed:      "failed",
	StatusTimedOut:    "timed out",
	StatusCrashed:     "crashed",
	StatusConfigError: "config error",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}

	return "unknown"
}

// JobResult is the record of one job in the batch.
// The outcome fields are only present when a process was attempted.
type JobResult struct {
	Number      int     `json:"number" yaml:"number"`
	Job         JobSpec `json:"job" yaml:"job"`
	Cmd         string  `json:"cmd" yaml:"cmd"`
	Cwd         string  `json:"cwd" yaml:"cwd"`
	Output      string  `json:"output,omitempty" yaml:"output,omitempty"`
	ConfigError string  `json:"config_error,omitempty" yaml:"config_error,omitempty"`
	*Outcome    `yaml:",inline"`
}

// Status classifies the result.
func (r *JobResult) Status() Status {
	switch {
	case r.ConfigError != "" || r.Outcome == nil:
		return StatusConfigError
	case r.TimedOut:
		return StatusTimedOut
	case r.Crashed || r.ReturnCode == nil:
		return StatusCrashed
	case *r.ReturnCode != 0:
		return StatusFailed
	default:
		return StatusSucceeded
	}
}

// Results is the ordered list of job results of a batch.
type Results []*JobResult

// HasFailure reports whether any job did not succeed.
func (r Results) HasFailure() bool {
	return slices.ContainsFunc(r, func(res *JobResult) bool {
		return res.Status() != StatusSucceeded
	})
}

// Counts returns the number of results in each status.
func (r Results) Counts() map[Status]int {
	counts := make(map[Status]int, len(statusNames))
	for _, res := range r {
		counts[res.Status()]++
	}

	return counts
}
