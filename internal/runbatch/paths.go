// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"path/filepath"
)

const defaultJobWorkdir = "."

// ResolveWorkdir returns the absolute working directory for a job.
// A relative job workdir is joined onto the run context workdir, an absolute one replaces it.
// The directory is not required to exist.
func ResolveWorkdir(job JobSpec, rc RunContext) string {
	dir := job.Workdir
	if dir == "" {
		dir = defaultJobWorkdir
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(rc.Workdir, dir)
	}

	return absClean(dir)
}

// ResolveOutputPath returns the absolute path of the log file for job number n.
// When the job does not name a file, one is derived from the job list name and n.
func ResolveOutputPath(rc RunContext, job JobSpec, n int) string {
	name := job.Stdout
	if name == "" {
		name = DefaultLogName(rc.JobsFileName, n)
	}

	if filepath.IsAbs(name) {
		return absClean(name)
	}

	return absClean(filepath.Join(rc.JobsFileDir, name))
}

// DefaultLogName is the log file name used for job n when the job does not set one.
func DefaultLogName(jobsFileName string, n int) string {
	if jobsFileName == "" {
		return fmt.Sprintf("job-%d-console.log", n)
	}

	return fmt.Sprintf("%s-job-%d-console.log", jobsFileName, n)
}

func absClean(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		// Only happens when the current directory is gone.
		return filepath.Clean(p)
	}

	return abs
}
