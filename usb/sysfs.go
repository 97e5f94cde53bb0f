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

// Package usb finds coolers in sysfs, watches for hotplug events and talks to
// them through usbfs.
package usb

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Supported device.
const (
	VendorNZXT    uint16 = 0x1e71
	ProductX62    uint16 = 0x170e
	SysfsUSBPath         = "/sys/bus/usb/devices"
	DevfsUSBPath         = "/dev/bus/usb"
)

// Info identifies a USB device found in sysfs.
type Info struct {
	// Name is the sysfs entry, such as "1-4", used as the device id.
	Name      string `json:"name"`
	BusNum    int    `json:"busnum"`
	DevNum    int    `json:"devnum"`
	VendorID  uint16 `json:"vendor_id"`
	ProductID uint16 `json:"product_id"`
	Product   string `json:"product,omitempty"`
}

// DevfsPath returns the usbfs node for the device under root.
func (i Info) DevfsPath(root string) string {
	return filepath.Join(root, fmt.Sprintf("%03d", i.BusNum), fmt.Sprintf("%03d", i.DevNum))
}

// Supported reports whether the device is a cooler this daemon drives.
func (i Info) Supported() bool {
	return i.VendorID == VendorNZXT && i.ProductID == ProductX62
}

// Scan lists supported devices under a sysfs devices directory.
func Scan(root string) ([]Info, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var found []Info
	for _, entry := range entries {
		name := entry.Name()
		// Root hubs are "usbN"; interfaces contain a colon.
		if strings.HasPrefix(name, "usb") || strings.Contains(name, ":") {
			continue
		}
		info, err := ReadInfo(root, name)
		if err != nil || !info.Supported() {
			continue
		}
		found = append(found, info)
	}
	return found, nil
}

// ReadInfo reads the identifying attributes of one sysfs device.
func ReadInfo(root, name string) (Info, error) {
	dir := filepath.Join(root, name)
	info := Info{Name: name}

	var err error
	if info.BusNum, err = readDecimal(filepath.Join(dir, "busnum")); err != nil {
		return info, err
	}
	if info.DevNum, err = readDecimal(filepath.Join(dir, "devnum")); err != nil {
		return info, err
	}
	if info.VendorID, err = readHex16(filepath.Join(dir, "idVendor")); err != nil {
		return info, err
	}
	if info.ProductID, err = readHex16(filepath.Join(dir, "idProduct")); err != nil {
		return info, err
	}
	if product, err := readString(filepath.Join(dir, "product")); err == nil {
		info.Product = product
	}
	return info, nil
}

func readString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readDecimal(path string) (int, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}

func readHex16(path string) (uint16, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return uint16(n), nil
}
