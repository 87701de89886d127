// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
)

// Watch monitors the signal channel and cancels the context on the second
// signal of a given type. The first signal is left to the running job.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	sigMap := make(map[os.Signal]struct{})

	for sig := range sigCh {
		if _, ok := sigMap[sig]; ok {
			ctxlog.Logger(ctx).Warn("watchdog",
				"detail", "received second signal of type, cancelling remaining jobs", "signal", sig.String())
			close(sigCh)
			cancel()

			return
		}

		ctxlog.Logger(ctx).Info("watchdog", "detail", "received first signal of type, no-op", "signal", sig.String())

		sigMap[sig] = struct{}{}
	}
}
