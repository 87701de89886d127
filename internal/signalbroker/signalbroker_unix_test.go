// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package signalbroker

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DeliversSignal(t *testing.T) {
	ch := New(context.Background(), syscall.SIGUSR1)
	defer Stop(ch)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case s := <-ch:
		assert.Equal(t, syscall.SIGUSR1, s)
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not delivered to the broker channel")
	}
}
