// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package commandinpath resolves the executable for a job's command.
package commandinpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const goosWindows = "windows"

var (
	// ErrCommandNotFound is returned when the command is empty or cannot be found.
	ErrCommandNotFound = errors.New("command not found")
	// ErrNotExecutable is returned when the command exists but cannot be executed.
	ErrNotExecutable = errors.New("command is not executable")
)

// Find returns the path of the executable for command.
// A command containing a path separator is resolved against dir when relative,
// otherwise every entry of the PATH environment variable is searched in order.
// On Windows the extensions listed in PATHEXT are also tried.
func Find(command, dir string) (string, error) {
	if command == "" {
		return "", ErrCommandNotFound
	}

	if strings.ContainsRune(command, '/') || strings.ContainsRune(command, filepath.Separator) {
		path := command
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}

		return checkExecutable(path)
	}

	for p := range strings.SplitSeq(os.Getenv("PATH"), string(os.PathListSeparator)) {
		if p == "" {
			continue
		}

		for _, candidate := range candidates(filepath.Join(p, command)) {
			if path, err := checkExecutable(candidate); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrCommandNotFound, command)
}

func candidates(path string) []string {
	if runtime.GOOS != goosWindows || filepath.Ext(path) != "" {
		return []string{path}
	}

	exts := os.Getenv("PATHEXT")
	if exts == "" {
		exts = ".COM;.EXE;.BAT;.CMD"
	}

	res := []string{path}
	for ext := range strings.SplitSeq(exts, ";") {
		if ext != "" {
			res = append(res, path+strings.ToLower(ext))
		}
	}

	return res
}

func checkExecutable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Join(ErrCommandNotFound, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotExecutable, path)
	}

	// check if the command is executable if not Windows
	if runtime.GOOS != goosWindows && info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotExecutable, path)
	}

	return path, nil
}
