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

// LedSize is the length of an LED command.
const LedSize = 32

// RingColors is the number of addressable LEDs on the ring.
const RingColors = 8

// MaxCycles is the number of cycle slots the cycle index can address.
const MaxCycles = 8

// Which selects the LED zone a message targets (bits 0-2 of byte 2).
type Which uint8

const (
	WhichSync Which = 0b000
	WhichLogo Which = 0b001
	WhichRing Which = 0b010
)

// Direction of moving presets (bits 4-7 of byte 2).
type Direction uint8

const (
	DirectionClockwise        Direction = 0
	DirectionCounterclockwise Direction = 1
)

// Preset is the animation pattern stored in byte 3.
type Preset uint8

const (
	PresetFixed           Preset = 0x00
	PresetFading          Preset = 0x01
	PresetSpectrumWave    Preset = 0x02
	PresetMarquee         Preset = 0x03
	PresetCoveringMarquee Preset = 0x04
	PresetAlternating     Preset = 0x05
	PresetBreathing       Preset = 0x06
	PresetPulse           Preset = 0x07
	PresetTaiChi          Preset = 0x08
	PresetWaterCooler     Preset = 0x09
	PresetLoad            Preset = 0x0a
)

// Interval is the animation speed (bits 0-2 of byte 4).
type Interval uint8

const (
	IntervalSlowest Interval = 0
	IntervalSlower  Interval = 1
	IntervalNormal  Interval = 2
	IntervalFaster  Interval = 3
	IntervalFastest Interval = 4
)

// DefaultGroupSize is the marquee group size of a fresh message.
const DefaultGroupSize = 3

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// Wire layout:
//
//	byte 0-1   header 0x02 0x4c
//	byte 2     which:3 | moving:1 << 3 | direction:4 << 4
//	byte 3     preset
//	byte 4     interval:3 | (group_size-3):2 << 3 | cycle:3 << 5
//	byte 5-7   logo color, GRB
//	byte 8-31  ring colors, 8 x RGB
const (
	ledByteMode   = 2
	ledBytePreset = 3
	ledByteTiming = 4
	ledLogoOffset = 5
	ledRingOffset = 8
)

// LedMessage is one 32-byte LED command.
type LedMessage [LedSize]byte

// NewLedMessage returns a message for the zone with every field at its
// default: fixed, not moving, clockwise, normal interval, group size 3,
// cycle 0, all colors black.
func NewLedMessage(which Which) LedMessage {
	var m LedMessage
	m[0], m[1] = 0x02, 0x4c
	m.SetWhich(which)
	m.SetDefaults()
	return m
}

// SetDefaults resets every animation field while keeping zone and colors.
func (m *LedMessage) SetDefaults() {
	m.SetMoving(false)
	m.SetDirection(DirectionClockwise)
	m.SetPreset(PresetFixed)
	m.SetInterval(IntervalNormal)
	m.SetGroupSize(DefaultGroupSize)
	m.SetCycle(0)
}

func (m *LedMessage) SetWhich(which Which) {
	m[ledByteMode] &^= 0b111
	m[ledByteMode] |= uint8(which) & 0b111
}

func (m *LedMessage) SetMoving(moving bool) {
	m[ledByteMode] &^= 0b1 << 3
	if moving {
		m[ledByteMode] |= 0b1 << 3
	}
}

func (m *LedMessage) SetDirection(direction Direction) {
	m[ledByteMode] &^= 0b1111 << 4
	m[ledByteMode] |= (uint8(direction) & 0b1111) << 4
}

func (m *LedMessage) SetPreset(preset Preset) {
	m[ledBytePreset] = uint8(preset)
}

func (m *LedMessage) SetInterval(interval Interval) {
	m[ledByteTiming] &^= 0b111
	m[ledByteTiming] |= uint8(interval) & 0b111
}

// SetGroupSize stores (size - 3) in two bits; sizes 3 to 6 are representable.
func (m *LedMessage) SetGroupSize(size uint8) {
	m[ledByteTiming] &^= 0b11 << 3
	m[ledByteTiming] |= ((size - 3) & 0b11) << 3
}

func (m *LedMessage) SetCycle(cycle uint8) {
	m[ledByteTiming] &^= 0b111 << 5
	m[ledByteTiming] |= (cycle & 0b111) << 5
}

// SetLogoColor writes the logo color. The device expects GRB order.
func (m *LedMessage) SetLogoColor(c Color) {
	m[ledLogoOffset] = c.G
	m[ledLogoOffset+1] = c.R
	m[ledLogoOffset+2] = c.B
}

func (m *LedMessage) SetRingColors(colors [RingColors]Color) {
	for i, c := range colors {
		off := ledRingOffset + i*3
		m[off] = c.R
		m[off+1] = c.G
		m[off+2] = c.B
	}
}

func (m LedMessage) Which() Which         { return Which(m[ledByteMode] & 0b111) }
func (m LedMessage) Moving() bool         { return m[ledByteMode]&(0b1<<3) != 0 }
func (m LedMessage) Direction() Direction { return Direction(m[ledByteMode] >> 4) }
func (m LedMessage) Preset() Preset       { return Preset(m[ledBytePreset]) }
func (m LedMessage) Interval() Interval   { return Interval(m[ledByteTiming] & 0b111) }
func (m LedMessage) GroupSize() uint8     { return (m[ledByteTiming]>>3)&0b11 + 3 }
func (m LedMessage) Cycle() uint8         { return m[ledByteTiming] >> 5 }

func (m LedMessage) LogoColor() Color {
	return Color{R: m[ledLogoOffset+1], G: m[ledLogoOffset], B: m[ledLogoOffset+2]}
}

func (m LedMessage) RingColors() [RingColors]Color {
	var colors [RingColors]Color
	for i := range colors {
		off := ledRingOffset + i*3
		colors[i] = Color{R: m[off], G: m[off+1], B: m[off+2]}
	}
	return colors
}

// Bytes returns the message as sent on the wire.
func (m LedMessage) Bytes() []byte {
	return m[:]
}
