// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package run

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/runjobs/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := &cli.Command{
		Name:           "runjobs",
		Commands:       []*cli.Command{NewRunCmd()},
		Writer:         &stdout,
		ErrWriter:      &stderr,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	err := root.Run(t.Context(), append([]string{"runjobs", "run"}, args...))

	return stdout.String(), stderr.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	return -1
}

func writeJobsFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func decodeResults(t *testing.T, out string) []map[string]any {
	t.Helper()

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)

	return results
}

func TestRun_Success(t *testing.T) {
	dir := t.TempDir()
	path := writeJobsFile(t, dir, "jobs.json", `[{"command": "echo", "args": ["hello"]}]`)

	stdout, _, err := runCLI(t, path)
	require.NoError(t, err)

	results := decodeResults(t, stdout)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.0, results[0]["return_code"], 0)
	assert.Equal(t, "echo hello", results[0]["cmd"])
	assert.Equal(t, dir, results[0]["cwd"])

	b, err := os.ReadFile(filepath.Join(dir, "jobs.json-job-0-console.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello\n")
}

func TestRun_DefaultJobsFile(t *testing.T) {
	dir := t.TempDir()
	writeJobsFile(t, dir, defaultJobsFile, `[{"command": "true", "args": []}]`)
	t.Chdir(dir)

	stdout, _, err := runCLI(t)
	require.NoError(t, err)
	assert.Len(t, decodeResults(t, stdout), 1)
	assert.FileExists(t, filepath.Join(dir, "jobs.json-job-0-console.log"))
}

func TestRun_FailureExitStatus(t *testing.T) {
	dir := t.TempDir()
	path := writeJobsFile(t, dir, "jobs.json", `[
	{"command": "sh", "args": ["-c", "exit 3"]},
	{"command": "echo", "args": ["still runs"]},
	{"command": "echo", "args": [], "workdir": "nonexistent"}
]`)

	stdout, _, err := runCLI(t, path)
	assert.Equal(t, 1, exitCode(err))

	results := decodeResults(t, stdout)
	require.Len(t, results, 3)
	assert.InDelta(t, 3.0, results[0]["return_code"], 0)
	assert.InDelta(t, 0.0, results[1]["return_code"], 0)
	assert.Equal(t, "Not a directory: "+filepath.Join(dir, "nonexistent"), results[2]["config_error"])
}

func TestRun_MissingJobsFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")

	stdout, stderr, err := runCLI(t, missing)
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Cannot find job file: "+missing)
}

func TestRun_InvalidJobsFile(t *testing.T) {
	path := writeJobsFile(t, t.TempDir(), "jobs.json", `{"command": "echo"}`)

	stdout, _, err := runCLI(t, path)
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, stdout)
}

func TestRun_InvalidFormat(t *testing.T) {
	path := writeJobsFile(t, t.TempDir(), "jobs.json", `[]`)

	_, _, err := runCLI(t, "--format", "xml", path)
	require.Error(t, err)
}

func TestRun_OutputFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeJobsFile(t, dir, "jobs.yaml", "- command: echo\n  args: [to file]\n")
	out := filepath.Join(dir, "results.yaml")

	stdout, _, err := runCLI(t, "-o", out, "--format", "yaml", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	f, err := os.Open(out)
	require.NoError(t, err)

	defer f.Close() //nolint:errcheck

	results, err := runbatch.ReadResults(f, runbatch.FormatYAML)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "echo to file", results[0].Cmd)
	assert.Equal(t, runbatch.StatusSucceeded, results[0].Status())
	assert.FileExists(t, filepath.Join(dir, "jobs.yaml-job-0-console.log"))
}

func TestRun_TextFormat(t *testing.T) {
	path := writeJobsFile(t, t.TempDir(), "jobs.json", `[{"command": "echo", "args": ["hi"]}]`)

	stdout, _, err := runCLI(t, "--format", "text", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[0] echo hi (return code 0")
	assert.Contains(t, stdout, "1 job: 1 succeeded")
}

func TestRun_WorkdirAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "sub"), 0o755))

	envFile := filepath.Join(dir, "run.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RUNJOBS_TEST_GREETING=from env file\n"), 0o600))

	path := writeJobsFile(t, dir, "jobs.json",
		`[{"command": "sh", "args": ["-c", "echo $RUNJOBS_TEST_GREETING"], "workdir": "sub"}]`)

	stdout, _, err := runCLI(t, "--workdir", base, "--env-file", envFile, path)
	require.NoError(t, err)

	results := decodeResults(t, stdout)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(base, "sub"), results[0]["cwd"])

	b, err := os.ReadFile(filepath.Join(dir, "jobs.json-job-0-console.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "from env file\n")
}

func TestRun_EnvFileMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeJobsFile(t, dir, "jobs.json", `[{"command": "true", "args": []}]`)

	stdout, _, err := runCLI(t, "--env-file", filepath.Join(dir, "missing.env"), path)
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, stdout)
}

func TestRun_HCL(t *testing.T) {
	dir := t.TempDir()
	path := writeJobsFile(t, dir, "main.runjobs.hcl", `
batch "hcl" {
  job {
    command = "echo"
    args    = ["from hcl"]
  }
}
`)

	stdout, _, err := runCLI(t, path)
	require.NoError(t, err)

	results := decodeResults(t, stdout)
	require.Len(t, results, 1)
	assert.Equal(t, "echo from hcl", results[0]["cmd"])
}

func TestRun_FetchedJobsFile(t *testing.T) {
	src := t.TempDir()
	writeJobsFile(t, src, "jobs.json", `[{"command": "echo", "args": ["fetched"]}]`)

	stdout, _, err := runCLI(t, "file://"+src+"//jobs.json")
	require.NoError(t, err)

	results := decodeResults(t, stdout)
	require.Len(t, results, 1)

	cwd, ok := results[0]["cwd"].(string)
	require.True(t, ok)
	assert.NotEqual(t, src, cwd, "fetched job list runs from its own directory")
	assert.True(t, strings.HasPrefix(filepath.Base(filepath.Dir(cwd)), "runjobs-"))

	t.Cleanup(func() { _ = os.RemoveAll(filepath.Dir(cwd)) })
}
