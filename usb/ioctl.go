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
	"unsafe"

	"golang.org/x/sys/unix"
)

// Generic Linux ioctl encoding, shared by x86 and arm:
//
//	bits 0-7    number
//	bits 8-15   type
//	bits 16-29  argument size
//	bits 30-31  direction
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

func ior(typ, nr, size uintptr) uintptr { return ioc(iocRead, typ, nr, size) }
func iowr(typ, nr, size uintptr) uintptr { return ioc(iocRead|iocWrite, typ, nr, size) }
func ioNone(typ, nr uintptr) uintptr { return ioc(iocNone, typ, nr, 0) }

// struct usbdevfs_ctrltransfer
type ctrlTransfer struct {
	requestType uint8
	request     uint8
	value       uint16
	index       uint16
	length      uint16
	timeout     uint32
	data        uintptr
}

// struct usbdevfs_bulktransfer; the kernel routes interrupt endpoints
// through the same call.
type bulkTransfer struct {
	endpoint uint32
	length   uint32
	timeout  uint32
	data     uintptr
}

// struct usbdevfs_ioctl
type ifaceIoctl struct {
	ifno int32
	code int32
	data uintptr
}

const usbdevfsType = 'U'

var (
	ioctlControl    = iowr(usbdevfsType, 0, unsafe.Sizeof(ctrlTransfer{}))
	ioctlBulk       = iowr(usbdevfsType, 2, unsafe.Sizeof(bulkTransfer{}))
	ioctlClaim      = ior(usbdevfsType, 15, unsafe.Sizeof(uint32(0)))
	ioctlRelease    = ior(usbdevfsType, 16, unsafe.Sizeof(uint32(0)))
	ioctlIoctl      = iowr(usbdevfsType, 18, unsafe.Sizeof(ifaceIoctl{}))
	ioctlDisconnect = ioNone(usbdevfsType, 22)
)

func ioctl(fd int, req, arg uintptr) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}
