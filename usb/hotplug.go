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
	"bytes"
	"context"
	"errors"
	"path"
	"strings"

	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"
)

// Action is a uevent action we react to.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Event is a usb_device add or remove uevent.
type Event struct {
	Action  Action
	Name    string // sysfs name, e.g. "1-4"
	DevPath string
	Product string // PRODUCT=vid/pid/bcd, hex without padding
}

// Supported reports whether the PRODUCT key names a supported cooler. Remove
// events carry it too, so no sysfs lookup is needed.
func (e Event) Supported() bool {
	parts := strings.Split(e.Product, "/")
	if len(parts) < 2 {
		return false
	}
	return strings.EqualFold(parts[0], "1e71") && strings.EqualFold(parts[1], "170e")
}

// kobjectUeventGroup is the kernel broadcast group.
const kobjectUeventGroup = 1

// ueventBufferSize fits one uevent.
const ueventBufferSize = 4096

// pollTimeoutMS bounds how long Watch waits before rechecking ctx.
const pollTimeoutMS = 500

// Watch subscribes to kernel uevents and sends usb_device add/remove events
// until ctx ends. The channel is closed when Watch returns.
func Watch(ctx context.Context) (<-chan Event, error) {
	sock, err := nl.Subscribe(unix.NETLINK_KOBJECT_UEVENT, kobjectUeventGroup)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer sock.Close()

		fd := sock.GetFd()
		buf := make([]byte, ueventBufferSize)
		for ctx.Err() == nil {
			fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
			n, err := unix.Poll(fds, pollTimeoutMS)
			if err != nil {
				if errors.Is(err, unix.EINTR) {
					continue
				}
				return
			}
			if n == 0 {
				continue
			}

			n, err = unix.Read(fd, buf)
			if err != nil {
				if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOBUFS) {
					continue
				}
				return
			}

			evt, ok := ParseUEvent(buf[:n])
			if !ok {
				continue
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// ParseUEvent decodes a kernel uevent datagram. Only add and remove events
// for usb_device nodes are returned.
func ParseUEvent(data []byte) (Event, bool) {
	var (
		evt                Event
		subsystem, devtype string
	)

	for i, field := range bytes.Split(data, []byte{0}) {
		if len(field) == 0 {
			continue
		}
		s := string(field)
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			// The header line is action@devpath.
			if i == 0 {
				if action, devpath, ok := strings.Cut(s, "@"); ok {
					evt.Action = Action(action)
					evt.DevPath = devpath
				}
			}
			continue
		}

		switch key {
		case "ACTION":
			evt.Action = Action(value)
		case "DEVPATH":
			evt.DevPath = value
		case "SUBSYSTEM":
			subsystem = value
		case "DEVTYPE":
			devtype = value
		case "PRODUCT":
			evt.Product = value
		}
	}

	if subsystem != "usb" || devtype != "usb_device" {
		return Event{}, false
	}
	if evt.Action != ActionAdd && evt.Action != ActionRemove {
		return Event{}, false
	}
	evt.Name = path.Base(evt.DevPath)
	return evt, true
}
