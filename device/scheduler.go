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
	"errors"
	"sync"
	"time"

	"github.com/we-are-mono/kraken/daemon/logger"
)

const (
	// DefaultInterval is the update period of a freshly attached device.
	DefaultInterval = 1000 * time.Millisecond
	// MinInterval is the floor non-zero intervals are clamped to.
	MinInterval = 500 * time.Millisecond
)

// ErrClosed is returned to waiters when the device detaches.
var ErrClosed = errors.New("device closed")

// State is the scheduler's externally visible state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateHalted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TickFunc performs one update. Its error is only reported.
type TickFunc func(ctx context.Context) error

// Scheduler runs ticks on a single worker goroutine. A timer hands ticks to
// the worker through a one-slot queue without blocking; a tick that arrives
// while another is queued or running is dropped.
type Scheduler struct {
	tick TickFunc
	log  logger.Logger

	work   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	timerGen uint64
	pending  bool
	running  bool
	closed   bool
	updated  chan struct{}
	ticks    uint64
}

// NewScheduler starts the worker and arms the timer. An interval of zero
// starts halted.
func NewScheduler(interval time.Duration, tick TickFunc, log logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		tick:    tick,
		log:     log,
		work:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		updated: make(chan struct{}),
	}
	go s.worker()
	s.SetInterval(interval)
	return s
}

// ClampInterval applies the floor to a requested interval. Zero stays zero.
func ClampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// SetInterval changes the period and rearms the timer. Zero halts scheduling
// until a non-zero interval is set.
func (s *Scheduler) SetInterval(d time.Duration) time.Duration {
	d = ClampInterval(d)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.interval
	}
	s.interval = d
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if d > 0 {
		s.arm(s.timerGen)
	}
	return d
}

// arm must be called with mu held.
func (s *Scheduler) arm(gen uint64) {
	s.timer = time.AfterFunc(s.interval, func() { s.fire(gen) })
}

// Interval returns the current period. Zero means halted.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// State reports what the scheduler is doing.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return StateClosed
	case s.running:
		return StateRunning
	case s.interval == 0:
		return StateHalted
	default:
		return StateIdle
	}
}

// Ticks returns the number of completed ticks.
func (s *Scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Trigger queues a tick now and reports whether the worker accepted it.
func (s *Scheduler) Trigger() bool {
	return s.dispatch()
}

// fire runs on the timer goroutine. A timer from a superseded interval does
// nothing.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	stale := s.closed || gen != s.timerGen
	s.mu.Unlock()
	if stale {
		return
	}

	s.dispatch()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && gen == s.timerGen && s.interval > 0 {
		s.arm(gen)
	}
}

// dispatch decides busy or idle under mu, so an idle scheduler always
// accepts the tick even before the worker is parked on the queue.
func (s *Scheduler) dispatch() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.pending || s.running {
		s.mu.Unlock()
		s.log.Warn("work already on a queue")
		return false
	}
	s.pending = true
	// pending guarantees the slot is free.
	s.work <- struct{}{}
	s.mu.Unlock()
	return true
}

func (s *Scheduler) worker() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.work:
		}

		s.mu.Lock()
		s.pending = false
		s.running = true
		s.mu.Unlock()

		if err := s.tick(s.ctx); err != nil && s.ctx.Err() == nil {
			s.log.Error("Update failed", logger.Field{Key: "error", Value: err.Error()})
		}

		s.mu.Lock()
		s.running = false
		s.ticks++
		close(s.updated)
		s.updated = make(chan struct{})
		s.mu.Unlock()
	}
}

// Wait blocks until the next tick completes, successful or not. It returns
// ErrClosed once the scheduler stops.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	updated := s.updated
	s.mu.Unlock()

	select {
	case <-updated:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Stop cancels the timer and any in-flight tick, waits for the worker to exit
// and wakes every waiter with ErrClosed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.cancel()
	<-s.done

	s.mu.Lock()
	close(s.updated)
	s.updated = make(chan struct{})
	s.mu.Unlock()
}
