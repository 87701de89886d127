// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a batch of jobs, one after another.
//
// Each job is an external command run in its own working directory. Its merged
// stdout and stderr are written to a per-job log file. Every job produces a
// JobResult describing how it ended: a normal exit, a timeout, a crash, or a
// configuration error that stopped it being launched at all.
// A failing job never stops the batch.
package runbatch
