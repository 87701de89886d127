// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package proctree kills a process together with all of its descendants.
// Children are discovered with gopsutil before their parent is killed,
// as they are re-parented once the parent exits and can no longer be found.
package proctree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
	"github.com/shirou/gopsutil/v3/process"
)

var (
	// ErrProcessNotFound is returned when the root process does not exist.
	ErrProcessNotFound = errors.New("process not found")
	// ErrKillTree is returned when one or more processes in the tree could not be killed.
	ErrKillTree = errors.New("failed to kill process tree")
)

// Kill kills the process with the given pid and every descendant of it.
// Processes that have already exited are not treated as errors.
func Kill(ctx context.Context, pid int) error {
	root, err := process.NewProcessWithContext(ctx, int32(pid)) //nolint:gosec
	if err != nil {
		return fmt.Errorf("%w: pid %d: %w", ErrProcessNotFound, pid, err)
	}

	var result *multierror.Error

	killTree(ctx, root, &result)

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrKillTree, err)
	}

	return nil
}

func killTree(ctx context.Context, p *process.Process, result **multierror.Error) {
	children, err := p.ChildrenWithContext(ctx)
	if err != nil && !errors.Is(err, process.ErrorNoChildren) {
		ctxlog.Debug(ctx, "could not list child processes", "pid", p.Pid, "error", err)
	}

	for _, child := range children {
		killTree(ctx, child, result)
	}

	if err := p.KillWithContext(ctx); err != nil && !isGone(err) {
		*result = multierror.Append(*result, fmt.Errorf("pid %d: %w", p.Pid, err))
		return
	}

	ctxlog.Debug(ctx, "process killed", "pid", p.Pid)
}

func isGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, syscall.ESRCH)
}
