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
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func uevent(fields ...string) []byte {
	return []byte(strings.Join(fields, "\x00") + "\x00")
}

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Event
		wantOK  bool
		support bool
	}{
		{
			name: "add cooler",
			data: uevent(
				"add@/devices/pci0000:00/0000:00:14.0/usb1/1-4",
				"ACTION=add",
				"DEVPATH=/devices/pci0000:00/0000:00:14.0/usb1/1-4",
				"SUBSYSTEM=usb",
				"DEVTYPE=usb_device",
				"PRODUCT=1e71/170e/200",
				"BUSNUM=001",
				"DEVNUM=005",
			),
			want: Event{
				Action:  ActionAdd,
				Name:    "1-4",
				DevPath: "/devices/pci0000:00/0000:00:14.0/usb1/1-4",
				Product: "1e71/170e/200",
			},
			wantOK:  true,
			support: true,
		},
		{
			name: "remove other device",
			data: uevent(
				"remove@/devices/pci0000:00/0000:00:14.0/usb2/2-1",
				"ACTION=remove",
				"DEVPATH=/devices/pci0000:00/0000:00:14.0/usb2/2-1",
				"SUBSYSTEM=usb",
				"DEVTYPE=usb_device",
				"PRODUCT=46d/c52b/1211",
			),
			want: Event{
				Action:  ActionRemove,
				Name:    "2-1",
				DevPath: "/devices/pci0000:00/0000:00:14.0/usb2/2-1",
				Product: "46d/c52b/1211",
			},
			wantOK: true,
		},
		{
			name: "interface ignored",
			data: uevent(
				"add@/devices/pci0000:00/0000:00:14.0/usb1/1-4/1-4:1.0",
				"ACTION=add",
				"SUBSYSTEM=usb",
				"DEVTYPE=usb_interface",
			),
		},
		{
			name: "bind ignored",
			data: uevent(
				"bind@/devices/pci0000:00/0000:00:14.0/usb1/1-4",
				"ACTION=bind",
				"SUBSYSTEM=usb",
				"DEVTYPE=usb_device",
			),
		},
		{
			name: "other subsystem",
			data: uevent("add@/devices/virtual/net/lo", "ACTION=add", "SUBSYSTEM=net"),
		},
		{
			name: "empty",
			data: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseUEvent(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.support, got.Supported())
		})
	}
}

func TestIoctlNumbers(t *testing.T) {
	// Values from linux/usbdevice_fs.h on 64-bit targets.
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("64-bit layout only")
	}
	assert.Equal(t, uintptr(0xc0185500), ioctlControl)
	assert.Equal(t, uintptr(0xc0185502), ioctlBulk)
	assert.Equal(t, uintptr(0x8004550f), ioctlClaim)
	assert.Equal(t, uintptr(0x80045510), ioctlRelease)
	assert.Equal(t, uintptr(0xc0105512), ioctlIoctl)
	assert.Equal(t, uintptr(0x5516), ioctlDisconnect)
}
