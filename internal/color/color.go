// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const (
	sbPadding = 16 // padding for the strings.Builder
)

// Code represents an ANSI control code for text formatting.
type Code int

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"
	reset      = "\033[0m"
	prefix     = "\033["
	suffix     = "m"
)

// Control codes for text formatting.
const (
	Reset Code = iota
	Bold
	Faint
	Italic
	Underline
)

// Foreground text colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground Hi-Intensity text colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

// Log output goes to stderr, so that is the file we probe at start up.
var enabled = EnabledFor(os.Stderr)

// Colorize returns a string with ANSI color codes applied, followed by the reset code.
// If color output is not enabled the string is returned unchanged.
func Colorize(str string, colorCodes ...Code) string {
	if !enabled {
		return str
	}

	sb := strings.Builder{}
	sb.Grow(len(str) + len(prefix) + len(suffix) + len(reset) + sbPadding)
	writeCodes(&sb, colorCodes)
	sb.WriteString(str)
	sb.WriteString(reset)

	return sb.String()
}

// ControlString generates a string containing only the ANSI control codes.
func ControlString(c ...Code) string {
	if !enabled {
		return ""
	}

	sb := strings.Builder{}
	sb.Grow(len(prefix) + len(suffix) + sbPadding)
	writeCodes(&sb, c)

	return sb.String()
}

func writeCodes(sb *strings.Builder, codes []Code) {
	sb.WriteString(prefix)

	for i, code := range codes {
		if i > 0 {
			sb.WriteString(";")
		}

		sb.WriteString(strconv.Itoa(int(code)))
	}

	sb.WriteString(suffix)
}

// Enabled reports whether color output to stderr is enabled.
// It is evaluated once at package initialisation.
func Enabled() bool {
	return enabled
}

// EnabledFor reports whether color output should be written to f.
// NO_COLOR always wins, then FORCE_COLOR, then terminal detection.
func EnabledFor(f *os.File) bool {
	if nc := os.Getenv(NoColor); nc != "" {
		return false
	}

	if fc := os.Getenv(ForceColor); fc != "" {
		return true
	}

	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
