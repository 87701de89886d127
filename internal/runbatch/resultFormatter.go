// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// OutputOptions controls what is included in the text output.
type OutputOptions struct {
	ShowSuccessDetails bool // Whether to show the working directory and log file of successful jobs
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		ShowSuccessDetails: false,
	}
}

type textStyles struct {
	status  map[Status]lipgloss.Style
	detail  lipgloss.Style
	summary lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)

	return textStyles{
		status: map[Status]lipgloss.Style{
			StatusSucceeded:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
			StatusFailed:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
			StatusTimedOut:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
			StatusCrashed:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
			StatusConfigError: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		},
		detail:  r.NewStyle().Faint(true),
		summary: r.NewStyle().Bold(true),
	}
}

var statusSymbols = map[Status]string{
	StatusSucceeded:   "✓",
	StatusFailed:      "✗",
	StatusTimedOut:    "⏱",
	StatusCrashed:     "!",
	StatusConfigError: "~",
}

// writeTextResults writes one line per job followed by a summary line.
func writeTextResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	styles := newTextStyles(w)

	for _, r := range results {
		if err := writeTextResult(w, r, styles, options); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, styles.summary.Render(summaryLine(results)))

	return err
}

func writeTextResult(w io.Writer, r *JobResult, styles textStyles, options *OutputOptions) error {
	status := r.Status()
	style := styles.status[status]

	_, err := fmt.Fprintf(w, "%s %s %s\n",
		style.Render(statusSymbols[status]),
		style.Render(fmt.Sprintf("[%d] %s", r.Number, r.Cmd)),
		describe(r),
	)
	if err != nil {
		return err
	}

	if status == StatusSucceeded && !options.ShowSuccessDetails {
		return nil
	}

	details := []string{"cwd: " + r.Cwd}
	if r.Output != "" {
		details = append(details, "log: "+r.Output)
	}

	for _, d := range details {
		if _, err := fmt.Fprintf(w, "    %s\n", styles.detail.Render(d)); err != nil {
			return err
		}
	}

	return nil
}

// describe returns the parenthesised outcome shown after the command.
func describe(r *JobResult) string {
	switch r.Status() {
	case StatusConfigError:
		return "(config error: " + r.ConfigError + ")"
	case StatusTimedOut:
		return fmt.Sprintf("(timed out after %.2fs)", r.ElapsedSeconds)
	case StatusCrashed:
		return "(crashed: " + r.Error + ")"
	default:
		return fmt.Sprintf("(return code %d, %.2fs)", *r.ReturnCode, r.ElapsedSeconds)
	}
}

func summaryLine(results Results) string {
	counts := results.Counts()

	parts := make([]string, 0, len(statusNames))
	for s := StatusSucceeded; s <= StatusConfigError; s++ {
		if counts[s] == 0 {
			continue
		}

		parts = append(parts, strconv.Itoa(counts[s])+" "+s.String())
	}

	noun := "jobs"
	if len(results) == 1 {
		noun = "job"
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%d %s", len(results), noun)
	}

	return fmt.Sprintf("%d %s: %s", len(results), noun, strings.Join(parts, ", "))
}
