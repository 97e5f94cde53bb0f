// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package device

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/device/devicetest"
)

var _ Handle = (*devicetest.Handle)(nil)

func testLogger() (logger.Logger, *logger.BufferBackend) {
	backend := logger.NewBufferBackend(&bytes.Buffer{}, "text")
	return logger.New(logger.Config{Level: "debug"}, []logger.Backend{backend}, nil), backend
}

// attachHalted attaches with the timer halted so tests drive ticks by hand.
func attachHalted(t *testing.T, h Handle) (*Device, *logger.BufferBackend) {
	t.Helper()
	log, backend := testLogger()
	d, err := Attach(context.Background(), h, Options{ID: "1-4", Interval: 0, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { d.Detach() })
	return d, backend
}

// runTick triggers one tick and waits for it to finish.
func runTick(t *testing.T, s *Scheduler) {
	t.Helper()
	s.mu.Lock()
	updated := s.updated
	s.mu.Unlock()

	require.True(t, s.Trigger())
	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not complete")
	}
}
