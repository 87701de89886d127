// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads job lists and environment files.
//
// A job list is a JSON or YAML array of job objects, or an HCL file handled by the hcl sub package.
// Each entry is decoded on its own, so a malformed entry only invalidates that job.
package config
