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

//go:build linux

package usb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Interface is the USB interface the cooler's endpoints live on.
const Interface = 0

// ErrClosed is returned by transfers on a closed connection.
var ErrClosed = errors.New("usb connection closed")

// Conn is an open usbfs device node with its interface claimed. It satisfies
// device.Handle.
type Conn struct {
	path string

	mu     sync.Mutex
	fd     int
	closed bool
}

// Open opens a /dev/bus/usb node, detaches any kernel driver bound to the
// interface and claims it.
func Open(path string) (*Conn, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// ENODATA means no driver was bound.
	if err := detachKernelDriver(fd, Interface); err != nil && !errors.Is(err, unix.ENODATA) {
		unix.Close(fd)
		return nil, fmt.Errorf("detach kernel driver from %s: %w", path, err)
	}

	iface := uint32(Interface)
	if _, err := ioctl(fd, ioctlClaim, uintptr(unsafe.Pointer(&iface))); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("claim interface on %s: %w", path, err)
	}

	return &Conn{path: path, fd: fd}, nil
}

func detachKernelDriver(fd int, iface int32) error {
	cmd := ifaceIoctl{ifno: iface, code: int32(ioctlDisconnect)}
	_, err := ioctl(fd, ioctlIoctl, uintptr(unsafe.Pointer(&cmd)))
	return err
}

// Path returns the device node the connection was opened on.
func (c *Conn) Path() string {
	return c.path
}

// ControlTransfer issues a synchronous control transfer on endpoint 0.
func (c *Conn) ControlTransfer(ctx context.Context, requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}

	ctrl := ctrlTransfer{
		requestType: requestType,
		request:     request,
		value:       value,
		index:       index,
		length:      uint16(len(data)),
		timeout:     uint32(timeout.Milliseconds()),
	}
	if len(data) > 0 {
		ctrl.data = uintptr(unsafe.Pointer(&data[0]))
	}
	n, err := ioctl(c.fd, ioctlControl, uintptr(unsafe.Pointer(&ctrl)))
	runtime.KeepAlive(data)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// InterruptTransfer moves data on an interrupt endpoint. The direction comes
// from bit 7 of endpoint.
func (c *Conn) InterruptTransfer(ctx context.Context, endpoint uint8, data []byte, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}

	xfer := bulkTransfer{
		endpoint: uint32(endpoint),
		length:   uint32(len(data)),
		timeout:  uint32(timeout.Milliseconds()),
	}
	if len(data) > 0 {
		xfer.data = uintptr(unsafe.Pointer(&data[0]))
	}
	n, err := ioctl(c.fd, ioctlBulk, uintptr(unsafe.Pointer(&xfer)))
	runtime.KeepAlive(data)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the interface and closes the node. The kernel rebinds its
// driver on its own.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	iface := uint32(Interface)
	_, relErr := ioctl(c.fd, ioctlRelease, uintptr(unsafe.Pointer(&iface)))
	closeErr := unix.Close(c.fd)
	// ENODEV after unplug is expected.
	if relErr != nil && !errors.Is(relErr, unix.ENODEV) {
		return fmt.Errorf("release interface on %s: %w", c.path, relErr)
	}
	return closeErr
}
