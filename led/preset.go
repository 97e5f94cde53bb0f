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

package led

import (
	"fmt"

	"github.com/we-are-mono/kraken/protocol"
)

// ValidationError reports an LED configuration rejected before anything was
// stored. Attr names the attribute when the error came from Parse.
type ValidationError struct {
	Attr string
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Attr == "" {
		return e.Msg
	}
	return e.Attr + ": " + e.Msg
}

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Cycle carries the colors of one animation cycle. Logo is used by the logo
// and sync zones, Ring by the ring and sync zones.
type Cycle struct {
	Logo protocol.Color
	Ring [protocol.RingColors]protocol.Color
}

// Request is a preset configuration before validation. Optional parameters
// are nil when the caller did not supply them.
type Request struct {
	Preset    protocol.Preset
	Moving    *bool
	Direction *protocol.Direction
	Interval  *protocol.Interval
	GroupSize *uint8
	Cycles    []Cycle
}

// arity is the number of cycles a preset accepts.
type arity struct {
	min, max int
}

func presetArity(p protocol.Preset) arity {
	switch p {
	case protocol.PresetFixed, protocol.PresetSpectrumWave, protocol.PresetMarquee,
		protocol.PresetWaterCooler, protocol.PresetLoad:
		return arity{1, 1}
	case protocol.PresetAlternating, protocol.PresetTaiChi:
		return arity{2, 2}
	default:
		return arity{1, protocol.MaxCycles}
	}
}

// PresetLegalForZone reports whether the zone can display the preset. The
// logo, and therefore sync, only supports a subset.
func PresetLegalForZone(zone protocol.Which, p protocol.Preset) bool {
	if zone == protocol.WhichRing {
		return true
	}
	switch p {
	case protocol.PresetFixed, protocol.PresetFading, protocol.PresetSpectrumWave,
		protocol.PresetCoveringMarquee, protocol.PresetBreathing, protocol.PresetPulse:
		return true
	default:
		return false
	}
}

// MovingLegal reports whether the moving flag applies to the preset.
func MovingLegal(p protocol.Preset) bool {
	return p == protocol.PresetAlternating
}

// DirectionLegal reports whether a direction applies to the preset.
func DirectionLegal(p protocol.Preset) bool {
	switch p {
	case protocol.PresetSpectrumWave, protocol.PresetMarquee, protocol.PresetCoveringMarquee:
		return true
	default:
		return false
	}
}

// IntervalLegal reports whether the preset is time-varying.
func IntervalLegal(p protocol.Preset) bool {
	switch p {
	case protocol.PresetFixed, protocol.PresetLoad:
		return false
	default:
		return true
	}
}

// GroupSizeLegal reports whether a group size applies to the preset.
func GroupSizeLegal(p protocol.Preset) bool {
	return p == protocol.PresetMarquee
}

// Validate checks a request against the zone. The checks run in a fixed
// order: known preset, zone legality, cycle count, then each optional
// parameter. Parameters given for a preset that ignores them are errors.
func Validate(zone protocol.Which, req Request) error {
	if _, ok := presetNames[req.Preset]; !ok {
		return invalidf("unknown preset %#02x", uint8(req.Preset))
	}
	name := PresetName(req.Preset)

	if !PresetLegalForZone(zone, req.Preset) {
		return invalidf("illegal preset %s for %s", name, ZoneName(zone))
	}

	a := presetArity(req.Preset)
	if n := len(req.Cycles); n < a.min || n > a.max {
		return invalidf("invalid number of cycles %d for preset %s", n, name)
	}

	if req.Moving != nil && !MovingLegal(req.Preset) {
		return invalidf("illegal key moving for preset %s", name)
	}
	if req.Direction != nil && !DirectionLegal(req.Preset) {
		return invalidf("illegal key direction for preset %s", name)
	}
	if req.Interval != nil && !IntervalLegal(req.Preset) {
		return invalidf("illegal key interval for preset %s", name)
	}
	if req.GroupSize != nil {
		if !GroupSizeLegal(req.Preset) {
			return invalidf("illegal key group_size for preset %s", name)
		}
		if *req.GroupSize < 3 || *req.GroupSize > 6 {
			return invalidf("invalid group size %d", *req.GroupSize)
		}
	}
	return nil
}

// Render validates the request and builds one message per cycle.
func Render(zone protocol.Which, req Request) (Batch, error) {
	if err := Validate(zone, req); err != nil {
		return Batch{}, err
	}

	msgs := make([]protocol.LedMessage, len(req.Cycles))
	for i, cycle := range req.Cycles {
		m := protocol.NewLedMessage(zone)
		m.SetPreset(req.Preset)
		if req.Moving != nil {
			m.SetMoving(*req.Moving)
		}
		if req.Direction != nil {
			m.SetDirection(*req.Direction)
		}
		if req.Interval != nil {
			m.SetInterval(*req.Interval)
		}
		if req.GroupSize != nil {
			m.SetGroupSize(*req.GroupSize)
		}
		m.SetCycle(uint8(i))
		setColors(&m, zone, cycle)
		msgs[i] = m
	}
	return Batch{Messages: msgs}, nil
}

// Off returns the single fixed, all-black message that turns a zone dark.
func Off(zone protocol.Which) Batch {
	return Batch{Messages: []protocol.LedMessage{protocol.NewLedMessage(zone)}}
}

// Solid returns a fixed-preset batch showing one cycle of colors.
func Solid(zone protocol.Which, cycle Cycle) Batch {
	m := protocol.NewLedMessage(zone)
	setColors(&m, zone, cycle)
	return Batch{Messages: []protocol.LedMessage{m}}
}

func setColors(m *protocol.LedMessage, zone protocol.Which, cycle Cycle) {
	switch zone {
	case protocol.WhichLogo:
		m.SetLogoColor(cycle.Logo)
	case protocol.WhichRing:
		m.SetRingColors(cycle.Ring)
	default:
		m.SetLogoColor(cycle.Logo)
		m.SetRingColors(cycle.Ring)
	}
}
