// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package commandinpath

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	if runtime.GOOS == goosWindows {
		t.Skip("skipping executable bit tests on windows")
	}

	binDir := t.TempDir()
	workDir := t.TempDir()

	mockCommandName := "mockcommand"
	mockCommandPath := filepath.Join(binDir, mockCommandName)
	require.NoError(t, os.WriteFile(mockCommandPath, []byte("#!/bin/sh\n"), 0o755))

	scriptPath := filepath.Join(workDir, "build.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\n"), 0o755))

	plainPath := filepath.Join(workDir, "data.txt")
	require.NoError(t, os.WriteFile(plainPath, []byte("x"), 0o644))

	require.NoError(t, os.Mkdir(filepath.Join(binDir, "adir"), 0o755))

	testCases := []struct {
		name     string
		command  string
		path     string
		wantPath string
		wantErr  error
	}{
		{
			name:     "command found in PATH",
			command:  mockCommandName,
			path:     binDir,
			wantPath: mockCommandPath,
		},
		{
			name:     "multiple paths in PATH",
			command:  mockCommandName,
			path:     "/non/existent/path" + string(os.PathListSeparator) + binDir,
			wantPath: mockCommandPath,
		},
		{
			name:    "command not found",
			command: "nonexistentcommand",
			path:    binDir,
			wantErr: ErrCommandNotFound,
		},
		{
			name:    "empty PATH",
			command: mockCommandName,
			path:    "",
			wantErr: ErrCommandNotFound,
		},
		{
			name:    "empty command",
			command: "",
			path:    binDir,
			wantErr: ErrCommandNotFound,
		},
		{
			name:    "directory in PATH is skipped",
			command: "adir",
			path:    binDir,
			wantErr: ErrCommandNotFound,
		},
		{
			name:     "relative path resolves against working directory",
			command:  "./build.sh",
			path:     "",
			wantPath: scriptPath,
		},
		{
			name:     "absolute path is used as is",
			command:  scriptPath,
			path:     "",
			wantPath: scriptPath,
		},
		{
			name:    "file without executable bit",
			command: "./data.txt",
			path:    "",
			wantErr: ErrNotExecutable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PATH", tc.path)

			got, err := Find(tc.command, workDir)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantPath, got)
		})
	}
}
