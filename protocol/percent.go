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

package protocol

import "fmt"

// PercentSize is the length of a fan or pump speed command.
const PercentSize = 5

// Role selects which speed a percent message targets. The value is the
// selector byte placed at offset 2.
type Role uint8

const (
	RoleFan  Role = 0x00
	RolePump Role = 0x40
)

// Bounds of each role, in percent.
const (
	FanPercentMin     = 35
	FanPercentMax     = 100
	FanPercentDefault = 35

	PumpPercentMin     = 50
	PumpPercentMax     = 100
	PumpPercentDefault = 60
)

func (r Role) String() string {
	switch r {
	case RoleFan:
		return "fan"
	case RolePump:
		return "pump"
	default:
		return fmt.Sprintf("role(%#02x)", uint8(r))
	}
}

// Bounds returns the inclusive [min, max] percent range of the role.
func (r Role) Bounds() (uint8, uint8) {
	if r == RolePump {
		return PumpPercentMin, PumpPercentMax
	}
	return FanPercentMin, FanPercentMax
}

// Default returns the percent programmed when a device attaches.
func (r Role) Default() uint8 {
	if r == RolePump {
		return PumpPercentDefault
	}
	return FanPercentDefault
}

// Clamp forces percent into the role's bounds.
func (r Role) Clamp(percent uint) uint8 {
	lo, hi := r.Bounds()
	switch {
	case percent < uint(lo):
		return lo
	case percent > uint(hi):
		return hi
	default:
		return uint8(percent)
	}
}

// PercentMessage is the 5-byte speed command {0x02, 0x4d, role, 0x00, percent}.
type PercentMessage [PercentSize]byte

// EncodePercent builds a speed command, clamping percent to the role's bounds.
func EncodePercent(role Role, percent uint) PercentMessage {
	return PercentMessage{0x02, 0x4d, byte(role), 0x00, role.Clamp(percent)}
}

// Role returns the selector byte of the message.
func (m PercentMessage) Role() Role {
	return Role(m[2])
}

// Percent returns the encoded percentage.
func (m PercentMessage) Percent() uint8 {
	return m[4]
}

// Bytes returns the message as sent on the wire.
func (m PercentMessage) Bytes() []byte {
	return m[:]
}
