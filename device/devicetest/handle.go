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

// Package devicetest provides an in-memory cooler for tests. Handle
// satisfies device.Handle.
package devicetest

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/we-are-mono/kraken/protocol"
)

// ErrInjected is returned by transfers a test asked to fail.
var ErrInjected = errors.New("injected failure")

// endpointDirIn is the direction bit of an IN endpoint address.
const endpointDirIn = 0x80

// Handle records every OUT transfer and answers IN transfers with a
// configurable status reply.
type Handle struct {
	mu         sync.Mutex
	status     []byte
	statusErr  error
	serial     []byte
	serialErr  error
	writes     [][]byte
	reads      int
	failWrites int
	shortWrite bool
	gate       chan struct{}
	entered    chan struct{}
	closed     bool
}

// NewHandle returns a healthy cooler at 30 °C with serial FAKE0001.
func NewHandle() *Handle {
	return &Handle{
		status: protocol.EncodeStatus(protocol.Status{TempLiquid: 30, FanRPM: 800, PumpRPM: 2400}),
		serial: protocol.EncodeSerial("FAKE0001"),
	}
}

func (f *Handle) ControlTransfer(_ context.Context, requestType, request uint8, value, index uint16, data []byte, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.serialErr != nil {
		return 0, f.serialErr
	}
	if requestType != protocol.SerialRequestType || request != protocol.SerialRequest ||
		value != protocol.SerialValue || index != protocol.SerialIndex {
		return 0, errors.New("unexpected control transfer")
	}
	return copy(data, f.serial), nil
}

func (f *Handle) InterruptTransfer(ctx context.Context, endpoint uint8, data []byte, _ time.Duration) (int, error) {
	if endpoint&endpointDirIn != 0 {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.reads++
		if f.statusErr != nil {
			return 0, f.statusErr
		}
		return copy(data, f.status), nil
	}

	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		if entered != nil {
			select {
			case entered <- struct{}{}:
			default:
			}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites > 0 {
		f.failWrites--
		return 0, ErrInjected
	}
	f.writes = append(f.writes, bytes.Clone(data))
	if f.shortWrite {
		return len(data) - 1, nil
	}
	return len(data), nil
}

func (f *Handle) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *Handle) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Writes returns a copy of every OUT transfer so far.
func (f *Handle) Writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

// Reads counts status reads.
func (f *Handle) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Reset forgets recorded transfers.
func (f *Handle) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
	f.reads = 0
}

func (f *Handle) SetStatus(s protocol.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = protocol.EncodeStatus(s)
}

// SetRawStatus replies with b verbatim, malformed or not.
func (f *Handle) SetRawStatus(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = b
}

// SetSerial replies to the serial query with a raw string descriptor.
func (f *Handle) SetSerial(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serial = b
}

func (f *Handle) SetSerialErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serialErr = err
}

// FailWrites fails the next n OUT transfers.
func (f *Handle) FailWrites(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = n
}

// ShortWrites makes OUT transfers report one byte less than requested.
func (f *Handle) ShortWrites(short bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shortWrite = short
}

func (f *Handle) SetStatusErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusErr = err
}

// Block makes OUT transfers wait until the returned release is called.
func (f *Handle) Block() (entered <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{}, 1)
	f.gate, f.entered = gate, in
	var once sync.Once
	return in, func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate, f.entered = nil, nil
			f.mu.Unlock()
			close(gate)
		})
	}
}
