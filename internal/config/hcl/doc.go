// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hcl loads job lists written in HCL.
//
// All `*.runjobs.hcl` files in a directory are read together. They must declare exactly one batch block,
// whose job blocks are run in the order they appear:
//
//	variable "greeting" {
//	  default = "hello"
//	}
//
//	batch "example" {
//	  job {
//	    command = "echo"
//	    args    = [var.greeting]
//	    timeout = 10
//	  }
//	}
//
// Variables, locals and the golden function library are available in every expression.
package hcl
