// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	levelEnvSuffix  = "_LOG_LEVEL"
	formatEnvSuffix = "_LOG_FORMAT"
	formatJSON      = "json"
)

type loggerKey struct{}

// LevelVar is shared by every logger created by this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger is the logger used if no logger is stored in the context.
// It writes to stderr so that results written to stdout stay machine readable.
var DefaultLogger = newDefaultLogger()

func init() {
	LevelVar.Set(logLevelFromEnv())
}

func newDefaultLogger() *slog.Logger {
	if strings.EqualFold(os.Getenv(envName(formatEnvSuffix)), formatJSON) {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: LevelVar,
		}))
	}

	return slog.New(NewPrettyHandler(&slog.HandlerOptions{
		Level: LevelVar,
	},
		WithAutoColour(),
		WithDestinationWriter(os.Stderr),
	))
}

// New creates a new context with the given logger.
// If logger is nil, it uses the default logger.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// With returns a context whose logger carries the given attributes.
func With(ctx context.Context, args ...any) context.Context {
	return New(ctx, Logger(ctx).With(args...))
}

// Logger returns the logger from the context, or the default logger if not found.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// Info logs an info message with the given context.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Info(msg, args...)
}

// Debug logs a debug message with the given context.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Debug(msg, args...)
}

// Warn logs a warning message with the given context.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Warn(msg, args...)
}

// Error logs an error message with the given context.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Error(msg, args...)
}

// envName derives an environment variable name from the executable name,
// e.g. "runjobs" and "_LOG_LEVEL" gives "RUNJOBS_LOG_LEVEL".
func envName(suffix string) string {
	exec, _ := os.Executable()
	exec = filepath.Base(exec)
	exec = strings.TrimSuffix(exec, ".exe")

	return strings.ToUpper(exec) + suffix
}

func logLevelFromEnv() slog.Level {
	return parseLevel(os.Getenv(envName(levelEnvSuffix)))
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
