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

	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/dynamic"
	"github.com/we-are-mono/kraken/led"
	"github.com/we-are-mono/kraken/protocol"
)

// writer puts one entry on the wire.
type writer[E dynamic.Entry] func(ctx context.Context, h Handle, entry E) error

// Slot is the pending configuration of one attribute. Writers replace the
// desired value and mark it dirty; only the scheduler flushes it. The mutex is
// never held across a transfer, so writers never wait on the device.
type Slot[E dynamic.Entry] struct {
	name  string
	write writer[E]
	// skipStatic clears a dirty static value without a transfer when its
	// bytes match the last send.
	skipStatic bool

	mu         sync.Mutex
	static     E
	hasStatic  bool
	curve      *dynamic.Curve[E]
	dirty      bool
	generation uint64
	tracker    dynamic.Tracker
	current    E
	hasCurrent bool
}

func newSlot[E dynamic.Entry](name string, w writer[E]) *Slot[E] {
	return &Slot[E]{name: name, write: w}
}

// Name returns the attribute the slot backs.
func (s *Slot[E]) Name() string {
	return s.name
}

// SetStatic replaces the desired value with a fixed entry.
func (s *Slot[E]) SetStatic(entry E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.static = entry
	s.hasStatic = true
	s.curve = nil
	s.dirty = true
	s.generation++
}

// SetCurve replaces the desired value with a sensor-driven curve. The next
// tick evaluates it regardless of what was sent before.
func (s *Slot[E]) SetCurve(curve *dynamic.Curve[E]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero E
	s.static = zero
	s.hasStatic = false
	s.curve = curve
	s.dirty = true
	s.generation++
	s.tracker.Reset()
}

// Dirty reports whether the slot has unflushed content.
func (s *Slot[E]) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty || s.curve != nil
}

// Static returns the desired static entry, if any.
func (s *Slot[E]) Static() (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.static, s.hasStatic
}

// Curve returns the configured curve or nil.
func (s *Slot[E]) Curve() *dynamic.Curve[E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curve
}

// Current returns the entry most recently sent.
func (s *Slot[E]) Current() (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasCurrent
}

// Flush sends the desired value when there is something new to send and
// reports whether a transfer happened. On failure the slot stays dirty and the
// same content is retried on the next call. Curve read failures are logged and
// skip the slot without error.
func (s *Slot[E]) Flush(ctx context.Context, h Handle, status protocol.Status, log logger.Logger) (bool, error) {
	s.mu.Lock()
	curve := s.curve
	if curve == nil && !s.dirty {
		s.mu.Unlock()
		return false, nil
	}
	entry := s.static
	gen := s.generation
	s.mu.Unlock()

	if curve != nil {
		return s.flushCurve(ctx, h, curve, status, gen, log)
	}

	data := entry.Bytes()
	s.mu.Lock()
	if s.skipStatic && s.tracker.Sent(data) {
		if s.generation == gen {
			s.dirty = false
		}
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	if err := s.write(ctx, h, entry); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.dirty = false
	}
	s.tracker.CommitBytes(data)
	s.current = entry
	s.hasCurrent = true
	return true, nil
}

func (s *Slot[E]) flushCurve(ctx context.Context, h Handle, curve *dynamic.Curve[E], status protocol.Status, gen uint64, log logger.Logger) (bool, error) {
	index, entry, err := curve.Evaluate(ctx, status)
	if err != nil {
		log.Warn("Skipping dynamic update",
			logger.Field{Key: "attribute", Value: s.name},
			logger.Field{Key: "error", Value: err.Error()})
		return false, nil
	}
	data := entry.Bytes()

	s.mu.Lock()
	changed := s.tracker.Changed(index, data)
	if !changed && s.generation == gen {
		s.dirty = false
	}
	s.mu.Unlock()
	if !changed {
		return false, nil
	}

	if err := s.write(ctx, h, entry); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return true, nil
	}
	s.dirty = false
	s.tracker.Commit(index, data)
	s.current = entry
	s.hasCurrent = true
	return true, nil
}

func writePercent(ctx context.Context, h Handle, msg protocol.PercentMessage) error {
	return send(ctx, h, msg.Role().String()+"_percent", msg.Bytes())
}

func ledWriter(zone protocol.Which) writer[led.Batch] {
	op := led.AttrName(zone)
	return func(ctx context.Context, h Handle, b led.Batch) error {
		for _, m := range b.Messages {
			if err := send(ctx, h, op, m.Bytes()); err != nil {
				return err
			}
		}
		return nil
	}
}
