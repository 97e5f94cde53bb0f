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
	"fmt"
	"time"
)

// Interrupt endpoints used for every command and status reply.
const (
	EndpointOut uint8 = 0x01
	EndpointIn  uint8 = 0x81
)

// TransferTimeout bounds each interrupt transfer.
const TransferTimeout = 1000 * time.Millisecond

// Handle is an open USB device. Implementations need not be safe for
// concurrent use; the scheduler never issues two transfers at once.
type Handle interface {
	ControlTransfer(ctx context.Context, requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)
	InterruptTransfer(ctx context.Context, endpoint uint8, data []byte, timeout time.Duration) (int, error)
	Close() error
}

// ErrShortTransfer is wrapped by a TransportError when fewer bytes moved than
// the message length.
var ErrShortTransfer = errors.New("short transfer")

// TransportError reports a failed or short transfer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// send writes data to the OUT endpoint and requires a complete transfer.
func send(ctx context.Context, h Handle, op string, data []byte) error {
	n, err := h.InterruptTransfer(ctx, EndpointOut, data, TransferTimeout)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if n != len(data) {
		return &TransportError{Op: op, Err: fmt.Errorf("%w: wrote %d of %d bytes", ErrShortTransfer, n, len(data))}
	}
	return nil
}

// receive fills buf from the IN endpoint and requires a complete transfer.
func receive(ctx context.Context, h Handle, op string, buf []byte) error {
	n, err := h.InterruptTransfer(ctx, EndpointIn, buf, TransferTimeout)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if n != len(buf) {
		return &TransportError{Op: op, Err: fmt.Errorf("%w: read %d of %d bytes", ErrShortTransfer, n, len(buf))}
	}
	return nil
}
