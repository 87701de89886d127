// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"os"
	"slices"

	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
)

// BatchRunner runs the jobs of a batch one after another.
type BatchRunner struct {
	Executor *JobExecutor
}

// NewBatchRunner creates a BatchRunner whose processes receive the given signals.
func NewBatchRunner(signals <-chan os.Signal) *BatchRunner {
	return &BatchRunner{
		Executor: NewJobExecutor(NewProcessRunner(signals)),
	}
}

// RunAll runs every job in order and returns one result per job, in the same order.
// A job that fails in any way does not stop the jobs after it.
// Once ctx is cancelled the remaining jobs are reported as crashed without being started.
func (b *BatchRunner) RunAll(ctx context.Context, jobs []JobSpec, rc RunContext) Results {
	ctx = ctxlog.With(ctx, "runId", rc.RunID)
	ctxlog.Info(ctx, "starting batch", "jobs", len(jobs), "workdir", rc.Workdir)

	results := make(Results, 0, len(jobs))

	for n, job := range slices.All(jobs) {
		results = append(results, b.Executor.Execute(ctx, job, rc, n))
	}

	counts := results.Counts()
	ctxlog.Info(ctx, "batch finished",
		"succeeded", counts[StatusSucceeded],
		"failed", counts[StatusFailed],
		"timedOut", counts[StatusTimedOut],
		"crashed", counts[StatusCrashed],
		"configErrors", counts[StatusConfigError],
	)

	return results
}
