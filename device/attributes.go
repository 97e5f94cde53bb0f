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
	"strconv"
	"strings"
	"time"

	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/dynamic"
	"github.com/we-are-mono/kraken/led"
	"github.com/we-are-mono/kraken/protocol"
)

// Attribute names.
const (
	AttrSerialNo        = "serial_no"
	AttrTempLiquid      = "temp_liquid"
	AttrFanRPM          = "fan_rpm"
	AttrPumpRPM         = "pump_rpm"
	AttrUnknown1        = "unknown_1"
	AttrStatusFailed    = "status_failed"
	AttrFanPercent      = "fan_percent"
	AttrPumpPercent     = "pump_percent"
	AttrUpdateInterval  = "update_interval"
	AttrUpdateIndicator = "update_indicator"
	AttrLedLogo         = "led_logo"
	AttrLedRing         = "led_ring"
	AttrLedSync         = "led_sync"
)

var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrReadOnly         = errors.New("attribute is read-only")
	ErrWriteOnly        = errors.New("attribute is write-only")
	ErrInvalidValue     = errors.New("invalid value")
)

// Mode describes how an attribute may be accessed.
type Mode string

const (
	ModeRead      Mode = "r"
	ModeWrite     Mode = "w"
	ModeReadWrite Mode = "rw"
	ModeBlocking  Mode = "r (blocking)"
)

// Attribute is one entry of the attribute surface.
type Attribute struct {
	Name string `json:"name"`
	Mode Mode   `json:"mode"`
}

// Attributes lists every attribute in declaration order.
func Attributes() []Attribute {
	return []Attribute{
		{AttrSerialNo, ModeRead},
		{AttrTempLiquid, ModeRead},
		{AttrFanRPM, ModeRead},
		{AttrPumpRPM, ModeRead},
		{AttrUnknown1, ModeRead},
		{AttrStatusFailed, ModeRead},
		{AttrFanPercent, ModeReadWrite},
		{AttrPumpPercent, ModeReadWrite},
		{AttrUpdateInterval, ModeReadWrite},
		{AttrUpdateIndicator, ModeBlocking},
		{AttrLedLogo, ModeWrite},
		{AttrLedRing, ModeWrite},
		{AttrLedSync, ModeWrite},
	}
}

// Get reads an attribute. update_indicator blocks until the next tick
// completes or ctx ends.
func (d *Device) Get(ctx context.Context, name string) (string, error) {
	status, _ := d.snapshot.Get()

	switch name {
	case AttrSerialNo:
		return d.serial, nil
	case AttrTempLiquid:
		return strconv.Itoa(int(status.TempLiquid)), nil
	case AttrFanRPM:
		return strconv.Itoa(int(status.FanRPM)), nil
	case AttrPumpRPM:
		return strconv.Itoa(int(status.PumpRPM)), nil
	case AttrUnknown1:
		return strconv.Itoa(int(status.Unknown1)), nil
	case AttrStatusFailed:
		if d.snapshot.Failed() {
			return "1", nil
		}
		return "0", nil
	case AttrFanPercent:
		return readPercent(d.fan, protocol.RoleFan), nil
	case AttrPumpPercent:
		return readPercent(d.pump, protocol.RolePump), nil
	case AttrUpdateInterval:
		return strconv.FormatInt(d.scheduler.Interval().Milliseconds(), 10), nil
	case AttrUpdateIndicator:
		if err := d.scheduler.Wait(ctx); err != nil {
			return "", err
		}
		return "1", nil
	case AttrLedLogo, AttrLedRing, AttrLedSync:
		return "", fmt.Errorf("%s: %w", name, ErrWriteOnly)
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnknownAttribute)
	}
}

// Set writes an attribute. Parsing and validation happen here, on the
// caller's goroutine; the device is only touched by the next tick. On error
// the previous configuration is kept.
func (d *Device) Set(name, value string) error {
	switch name {
	case AttrFanPercent:
		return d.setPercent(d.fan, protocol.RoleFan, name, value)
	case AttrPumpPercent:
		return d.setPercent(d.pump, protocol.RolePump, name, value)
	case AttrUpdateInterval:
		ms, err := parseInterval(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		got := d.scheduler.SetInterval(ms)
		d.log.Info("Update interval changed", logger.Field{Key: "update_interval_ms", Value: got.Milliseconds()})
		return nil
	case AttrLedLogo:
		return setLed(d.logo, protocol.WhichLogo, value, d.sources)
	case AttrLedRing:
		return setLed(d.ring, protocol.WhichRing, value, d.sources)
	case AttrLedSync:
		return setLed(d.sync, protocol.WhichSync, value, d.sources)
	case AttrSerialNo, AttrTempLiquid, AttrFanRPM, AttrPumpRPM, AttrUnknown1,
		AttrStatusFailed, AttrUpdateIndicator:
		return fmt.Errorf("%s: %w", name, ErrReadOnly)
	default:
		return fmt.Errorf("%s: %w", name, ErrUnknownAttribute)
	}
}

func (d *Device) setPercent(slot *Slot[protocol.PercentMessage], role protocol.Role, name, value string) error {
	words := strings.Fields(value)
	if len(words) > 0 && strings.EqualFold(words[0], "dynamic") {
		curve, err := dynamic.ParsePercentCurve(role, words[1:], d.sources)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		slot.SetCurve(curve)
		return nil
	}

	pct, err := ParsePercent(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	slot.SetStatic(protocol.EncodePercent(role, pct))
	return nil
}

// ParsePercent reads a single unsigned integer, capped at 100. The encoder
// applies the role's bounds. Values beyond 32 bits are rejected.
func ParsePercent(value string) (uint, error) {
	words := strings.Fields(value)
	switch {
	case len(words) == 0:
		return 0, fmt.Errorf("%w: empty", ErrInvalidValue)
	case len(words) > 1:
		return 0, fmt.Errorf("%w: trailing data %q", ErrInvalidValue, strings.Join(words[1:], " "))
	}

	n, err := parseUint(words[0], 32)
	if err != nil {
		return 0, err
	}
	if n > 100 {
		n = 100
	}
	return uint(n), nil
}

// parseUint accepts the same integer forms as a sysfs attribute: an optional
// '+', then "0x" for hex, a leading 0 for octal, or decimal.
func parseUint(s string, bits int) (uint64, error) {
	digits := strings.TrimPrefix(s, "+")
	base := 10
	switch {
	case len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X"):
		digits, base = digits[2:], 16
	case len(digits) > 1 && digits[0] == '0':
		digits, base = digits[1:], 8
	}
	n, err := strconv.ParseUint(digits, base, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidValue, s)
	}
	return n, nil
}

func parseInterval(value string) (time.Duration, error) {
	words := strings.Fields(value)
	if len(words) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	ms, err := parseUint(words[0], 32)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func setLed(slot *Slot[led.Batch], zone protocol.Which, value string, sources dynamic.Sources) error {
	s, err := led.Parse(zone, value, sources)
	if err != nil {
		return err
	}
	if s.Curve != nil {
		slot.SetCurve(s.Curve)
		return nil
	}
	slot.SetStatic(*s.Static)
	return nil
}

func readPercent(s *Slot[protocol.PercentMessage], role protocol.Role) string {
	if c := s.Curve(); c != nil {
		return fmt.Sprintf("%d (dynamic %s)", percentOf(s, role), c.Selector)
	}
	return strconv.Itoa(int(percentOf(s, role)))
}
