// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a slog logger in a context.Context.
//
// The log level is read from an environment variable derived from the executable
// name. For an executable named "runjobs" this is RUNJOBS_LOG_LEVEL, which accepts
// DEBUG, INFO, WARN or ERROR; anything else means WARN.
// Setting RUNJOBS_LOG_FORMAT=json swaps the pretty console handler for slog's JSON handler.
package ctxlog
