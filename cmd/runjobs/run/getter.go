// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/runjobs/internal/ctxlog"
)

const (
	goGetterPathSeparator   = "//"
	goGetterRefSeparator    = "?"
	goGetterForcedSeparator = "::"
	goGetterSchemeSeparator = "://"
	minimumGetterParts      = 3 // Minimum parts in a go-getter URL: scheme, host, and path
)

// ErrGetJobsFile is returned when a remote job list cannot be fetched.
var ErrGetJobsFile = errors.New("failed to get job file")

// isRemote reports whether src must be fetched with go-getter rather than read from disk.
func isRemote(src string) bool {
	return strings.Contains(src, goGetterForcedSeparator) || strings.Contains(src, goGetterSchemeSeparator)
}

// fetchJobsFile downloads the job list at src into a new temporary directory and returns its local path.
// The directory is kept, as job log files are written next to the job list.
func fetchJobsFile(ctx context.Context, src string) (string, error) {
	if src == "" {
		return "", ErrGetJobsFile
	}

	tmpDir, err := os.MkdirTemp("", "runjobs-*")
	if err != nil {
		return "", errors.Join(ErrGetJobsFile, err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Join(ErrGetJobsFile, err)
	}

	req := &getter.Request{
		Src:     src,
		Dst:     filepath.Join(tmpDir, "src"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
		Copy:    true,
	}

	// Only directories can be fetched from repositories, so the file is read from the downloaded directory.
	// https://github.com/hashicorp/go-getter/issues/98
	dirURL, fileName := splitFileNameFromGetterURL(src)
	if dirURL != "" {
		req.Src = dirURL
	} else {
		fileName = remoteFileName(src)
		if fileName == "" {
			return "", fmt.Errorf("%w: invalid URL format: %s", ErrGetJobsFile, src)
		}

		req.GetMode = getter.ModeFile
		req.Dst = filepath.Join(req.Dst, fileName)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	ctxlog.Debug(ctx, "fetching job file", "src", req.Src, "dst", req.Dst)

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", errors.Join(ErrGetJobsFile, err)
	}

	if req.GetMode == getter.ModeFile {
		return res.Dst, nil
	}

	return filepath.Join(res.Dst, fileName), nil
}

// remoteFileName returns the last path element of a URL, ignoring any forced getter prefix and query.
func remoteFileName(src string) string {
	if _, after, ok := strings.Cut(src, goGetterForcedSeparator); ok {
		src = after
	}

	u, err := url.Parse(src)
	if err != nil {
		return ""
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}

	return name
}

// splitFileNameFromGetterURL splits the URL into the directory and file name.
// It returns the new getter URL without the file name and the file name itself.
// It will append any ref query parameter to the new URL if it exists.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref, fileName string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	if strings.Contains(last, goGetterRefSeparator) {
		refSplit := strings.Split(last, goGetterRefSeparator)
		if len(refSplit) > 1 {
			ref = strings.Join(refSplit[1:], "")
		}

		last = refSplit[0]
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName = filepath.Base(last)
	parts[len(parts)-1] = filepath.Dir(last)

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
