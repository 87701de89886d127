// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
)

// testContext returns a context whose logger discards everything.
func testContext(t *testing.T) context.Context {
	t.Helper()

	return ctxlog.New(t.Context(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ptr[T any](v T) *T {
	return &v
}
