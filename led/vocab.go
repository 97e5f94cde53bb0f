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

// Package led validates LED preset configurations for the logo, ring and sync
// zones and renders them into batches of wire messages.
package led

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/we-are-mono/kraken/protocol"
)

var presetNames = map[protocol.Preset]string{
	protocol.PresetFixed:           "fixed",
	protocol.PresetFading:          "fading",
	protocol.PresetSpectrumWave:    "spectrum_wave",
	protocol.PresetMarquee:         "marquee",
	protocol.PresetCoveringMarquee: "covering_marquee",
	protocol.PresetAlternating:     "alternating",
	protocol.PresetBreathing:       "breathing",
	protocol.PresetPulse:           "pulse",
	protocol.PresetTaiChi:          "tai_chi",
	protocol.PresetWaterCooler:     "water_cooler",
	protocol.PresetLoad:            "load",
}

var intervalNames = map[protocol.Interval]string{
	protocol.IntervalSlowest: "slowest",
	protocol.IntervalSlower:  "slower",
	protocol.IntervalNormal:  "normal",
	protocol.IntervalFaster:  "faster",
	protocol.IntervalFastest: "fastest",
}

var directionAliases = map[string]protocol.Direction{
	"clockwise":         protocol.DirectionClockwise,
	"forward":           protocol.DirectionClockwise,
	"counterclockwise":  protocol.DirectionCounterclockwise,
	"counter_clockwise": protocol.DirectionCounterclockwise,
	"anticlockwise":     protocol.DirectionCounterclockwise,
	"anti_clockwise":    protocol.DirectionCounterclockwise,
	"backward":          protocol.DirectionCounterclockwise,
}

var zoneNames = map[protocol.Which]string{
	protocol.WhichLogo: "logo",
	protocol.WhichRing: "ring",
	protocol.WhichSync: "sync",
}

// PresetName returns the attribute spelling of a preset.
func PresetName(p protocol.Preset) string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("preset(%#02x)", uint8(p))
}

// ZoneName returns the attribute spelling of a zone.
func ZoneName(z protocol.Which) string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("zone(%#02x)", uint8(z))
}

// ParsePreset matches a preset name, ignoring case.
func ParsePreset(s string) (protocol.Preset, error) {
	for p, name := range presetNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, invalidf("invalid preset %s", s)
}

// ParseInterval matches slowest, slower, normal, faster or fastest.
func ParseInterval(s string) (protocol.Interval, error) {
	for i, name := range intervalNames {
		if strings.EqualFold(name, s) {
			return i, nil
		}
	}
	return 0, invalidf("invalid interval %s", s)
}

// ParseDirection accepts clockwise or counterclockwise and their aliases.
func ParseDirection(s string) (protocol.Direction, error) {
	if d, ok := directionAliases[strings.ToLower(s)]; ok {
		return d, nil
	}
	return 0, invalidf("invalid direction %s", s)
}

// ParseBool follows the kernel's kstrtobool: only the first one or two
// characters are significant.
func ParseBool(s string) (bool, error) {
	if s == "" {
		return false, invalidf("invalid boolean %q", s)
	}
	switch s[0] {
	case 'e', 'E', 'y', 'Y', 't', 'T', '1':
		return true, nil
	case 'd', 'D', 'n', 'N', 'f', 'F', '0':
		return false, nil
	case 'o', 'O':
		if len(s) > 1 {
			switch s[1] {
			case 'n', 'N':
				return true, nil
			case 'f', 'F':
				return false, nil
			}
		}
	}
	return false, invalidf("invalid boolean %s", s)
}

// ParseColor reads "RGB" (each digit doubled) or "RRGGBB" hex notation.
func ParseColor(s string) (protocol.Color, error) {
	var hex string
	switch len(s) {
	case 3:
		hex = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
		hex = s
	default:
		return protocol.Color{}, invalidf("invalid color %s", s)
	}

	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return protocol.Color{}, invalidf("invalid color %s", s)
	}
	return protocol.Color{
		R: uint8(rgb >> 16),
		G: uint8(rgb >> 8),
		B: uint8(rgb),
	}, nil
}

// ParseGroupSize accepts marquee group sizes 3 to 6.
func ParseGroupSize(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || n < 3 || n > 6 {
		return 0, invalidf("invalid group size %s", s)
	}
	return uint8(n), nil
}

// FormatColor renders a color as RRGGBB.
func FormatColor(c protocol.Color) string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}
