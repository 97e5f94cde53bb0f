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
	"context"
	"sync"
	"time"

	"github.com/we-are-mono/kraken/protocol"
)

// Snapshot holds the last valid status reply. Only the scheduler writes it.
type Snapshot struct {
	mu      sync.Mutex
	status  protocol.Status
	updated time.Time
	failed  bool
}

// Get returns the retained status and when it was decoded. The time is zero
// until the first valid reply.
func (s *Snapshot) Get() (protocol.Status, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.updated
}

// Failed reports whether the most recent refresh failed.
func (s *Snapshot) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// refresh reads one status reply. A transport failure is returned. A malformed
// reply is returned too, but callers treat it as non-fatal for the tick; in
// both cases the previous status is kept.
func (s *Snapshot) refresh(ctx context.Context, h Handle) error {
	buf := make([]byte, protocol.StatusSize)
	err := receive(ctx, h, "status", buf)

	var status protocol.Status
	if err == nil {
		status, err = protocol.DecodeStatus(buf)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed = true
		return err
	}
	s.status = status
	s.updated = time.Now()
	s.failed = false
	return nil
}
