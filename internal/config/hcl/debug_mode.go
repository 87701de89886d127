// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"errors"
	"fmt"
	"io"

	"github.com/Azure/golden"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/peterh/liner"
)

// EnterDebugMode starts an interactive prompt that evaluates HCL expressions against the config.
func EnterDebugMode(config *Config, out io.Writer) {
	line := liner.NewLiner()
	defer func() {
		_ = line.Close()
	}()

	line.SetCtrlCAborts(true)
	fmt.Fprintln(out, "Entering debugging mode, press `quit` or `exit` or Ctrl+C to quit.") //nolint:errcheck

	for {
		input, err := line.Prompt("debug> ")

		switch {
		case err == nil:
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(out, "Aborted") //nolint:errcheck
			return
		default:
			fmt.Fprintln(out, "Error reading line: ", err) //nolint:errcheck
			return
		}

		if input == "quit" || input == "exit" {
			return
		}

		line.AppendHistory(input)

		result, err := Evaluate(config, input)
		if err != nil {
			fmt.Fprintln(out, err.Error()) //nolint:errcheck
			continue
		}

		fmt.Fprintln(out, result) //nolint:errcheck
	}
}

// Evaluate evaluates a single HCL expression against the config.
func Evaluate(config *Config, input string) (string, error) {
	expression, diag := hclsyntax.ParseExpression([]byte(input), "repl.hcl", hcl.InitialPos)
	if diag.HasErrors() {
		return "", diag
	}

	value, diag := expression.Value(config.EvalContext())
	if diag.HasErrors() {
		return "", diag
	}

	return golden.CtyValueToString(value), nil
}
