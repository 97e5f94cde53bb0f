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

package daemon

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/we-are-mono/kraken/daemon/logger"
)

// logQueueSize bounds entries waiting for a slow log client.
const logQueueSize = 256

// SocketLogSubscriber streams matching log entries to a client connection
// as JSON lines. OnLogEvent only enqueues, so a stalled client never blocks
// the goroutine that logged; entries beyond the queue are dropped and
// counted.
type SocketLogSubscriber struct {
	w      io.Writer
	filter *LogFilter

	queue   chan []byte
	dropped atomic.Uint64

	mu          sync.Mutex
	closed      bool
	queueClosed bool
	done        chan struct{}
}

// NewSocketLogSubscriber starts the writer goroutine for w.
func NewSocketLogSubscriber(w io.Writer, filter *LogFilter) *SocketLogSubscriber {
	s := &SocketLogSubscriber{
		w:      w,
		filter: filter,
		queue:  make(chan []byte, logQueueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *SocketLogSubscriber) run() {
	defer close(s.done)
	for line := range s.queue {
		if _, err := s.w.Write(line); err != nil {
			s.markClosed()
			// Keep draining so Close never blocks on a full queue.
			for range s.queue {
			}
			return
		}
	}
}

// OnLogEvent implements logger.Subscriber.
func (s *SocketLogSubscriber) OnLogEvent(entry *logger.Entry) error {
	if !s.filter.Match(entry) {
		return nil
	}
	data, err := entry.ToJSON()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.queue <- append(data, '\n'):
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Dropped counts entries discarded because the client fell behind.
func (s *SocketLogSubscriber) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *SocketLogSubscriber) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Close stops accepting entries and waits for queued ones to be written.
func (s *SocketLogSubscriber) Close() {
	s.mu.Lock()
	s.closed = true
	if !s.queueClosed {
		s.queueClosed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}
