// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color colorizes strings with ANSI escape codes.
// Colour output honours the NO_COLOR and FORCE_COLOR environment variables,
// otherwise it is enabled only when the target file is a terminal.
package color
