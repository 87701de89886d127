// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/TylerBrock/colorjson"
	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/runjobs/internal/color"
)

const jsonIndent = 4

// Format is an output format for results.
type Format string

const (
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
	// FormatText is a human readable summary.
	FormatText Format = "text"
)

var (
	// ErrUnknownFormat is returned when an output format is not recognised.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrWriteResults is returned when results cannot be written.
	ErrWriteResults = errors.New("failed to write results")
	// ErrReadResults is returned when results cannot be read.
	ErrReadResults = errors.New("failed to read results")
)

// Formats lists the valid output formats.
func Formats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatText)}
}

// ParseFormat parses an output format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q, valid formats are %s", ErrUnknownFormat, s, strings.Join(Formats(), ", "))
	}
}

// Write writes the results to w in the given format.
func (r Results) Write(w io.Writer, format Format) error {
	return WriteResults(w, r, format, nil)
}

// WriteResults writes results to w in the given format.
// JSON written to a terminal is colourised.
func WriteResults(w io.Writer, results Results, format Format, options *OutputOptions) error {
	if results == nil {
		results = Results{}
	}

	var err error

	switch format {
	case FormatJSON, "":
		err = writeJSON(w, results)
	case FormatYAML:
		err = writeYAML(w, results)
	case FormatText:
		err = writeTextResults(w, results, options)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}

func writeJSON(w io.Writer, results Results) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", strings.Repeat(" ", jsonIndent))

	if err := enc.Encode(results); err != nil {
		return err
	}

	b := buf.Bytes()

	if f, ok := w.(*os.File); ok && color.EnabledFor(f) {
		var err error
		if b, err = colorise(b); err != nil {
			return err
		}

		b = append(b, '\n')
	}

	_, err := w.Write(b)

	return err
}

func colorise(b []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}

	f := colorjson.NewFormatter()
	f.Indent = jsonIndent

	return f.Marshal(v)
}

// quoteYAMLString double quotes every string so whitespace and control characters survive a round trip.
func quoteYAMLString(s string) ([]byte, error) {
	return []byte(strconv.Quote(s)), nil
}

func writeYAML(w io.Writer, results Results) error {
	b, err := yaml.MarshalWithOptions(results,
		yaml.IndentSequence(true),
		yaml.CustomMarshaler[string](quoteYAMLString),
	)
	if err != nil {
		return err
	}

	_, err = w.Write(b)

	return err
}

// ReadResults reads results previously written in JSON or YAML format.
func ReadResults(r io.Reader, format Format) (Results, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrReadResults, err)
	}

	switch format {
	case FormatJSON, "":
	case FormatYAML:
		var v any
		if err = yaml.Unmarshal(b, &v); err == nil {
			b, err = json.Marshal(v)
		}

		if err != nil {
			return nil, errors.Join(ErrReadResults, err)
		}
	default:
		return nil, fmt.Errorf("%w: %w: %q", ErrReadResults, ErrUnknownFormat, format)
	}

	var results Results
	if err := json.Unmarshal(b, &results); err != nil {
		return nil, errors.Join(ErrReadResults, err)
	}

	return results, nil
}
