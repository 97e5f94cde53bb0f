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

// Package dynamic maps live sensor readings onto a [0,100] index that selects
// a precomputed message from a 101-entry table.
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/we-are-mono/kraken/protocol"
)

// MaxIndex is the largest index a selector evaluates to.
const MaxIndex = 100

// ErrInvalidSource is returned while parsing a selector that names an unknown
// sensor. Evaluation never returns it.
var ErrInvalidSource = errors.New("invalid source")

// Source produces a raw reading. Status-backed sources read the snapshot taken
// earlier in the same tick; host and plugin sources ignore it.
type Source interface {
	Read(ctx context.Context, status protocol.Status) (uint64, error)
}

// HostReader exposes host sensors.
type HostReader interface {
	CPUTemperature(ctx context.Context) (float64, error)
	CPULoad(ctx context.Context) (float64, error)
}

// SensorResolver looks up sensor providers loaded as plugins.
type SensorResolver interface {
	HasProvider(name string) bool
	ReadSensor(ctx context.Context, provider, key string) (float64, error)
}

// Sources is the set of backends a selector may name. Nil members disable
// their sources.
type Sources struct {
	Host    HostReader
	Plugins SensorResolver
}

// Selector names a source and its optional normalization maximum. Max of zero
// means the raw reading is used, saturated at 100.
type Selector struct {
	Name   string
	Args   []string
	Max    uint64
	Source Source
}

// String renders the selector in the form ParseSelector accepts.
func (s Selector) String() string {
	parts := append([]string{s.Name}, s.Args...)
	if s.Max != 0 {
		parts = append(parts, strconv.FormatUint(s.Max, 10))
	}
	return strings.Join(parts, " ")
}

// Evaluate reads the source and normalizes it to an index.
func (s Selector) Evaluate(ctx context.Context, status protocol.Status) (uint8, error) {
	v, err := s.Source.Read(ctx, status)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.Name, err)
	}
	return Normalize(v, s.Max), nil
}

// Normalize scales v by 100/max when max is non-zero and saturates at 100.
func Normalize(v, max uint64) uint8 {
	if max != 0 {
		if v >= max {
			return MaxIndex
		}
		// v < max keeps the high word below max, so Div64 cannot panic.
		hi, lo := bits.Mul64(v, MaxIndex)
		v, _ = bits.Div64(hi, lo, max)
	}
	if v > MaxIndex {
		return MaxIndex
	}
	return uint8(v)
}

type statusField func(protocol.Status) uint64

func (f statusField) Read(_ context.Context, status protocol.Status) (uint64, error) {
	return f(status), nil
}

type hostSource struct {
	host HostReader
	read func(HostReader, context.Context) (float64, error)
}

func (h hostSource) Read(ctx context.Context, _ protocol.Status) (uint64, error) {
	v, err := h.read(h.host, ctx)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, nil
	}
	return uint64(v), nil
}

type pluginSource struct {
	plugins  SensorResolver
	provider string
	key      string
}

func (p pluginSource) Read(ctx context.Context, _ protocol.Status) (uint64, error) {
	v, err := p.plugins.ReadSensor(ctx, p.provider, p.key)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, nil
	}
	return uint64(v), nil
}

// ParseSelector consumes a source description from the front of words and
// returns the remaining words. Raw sources (temp_liquid, cpu_temp) take no
// maximum; fan_rpm, pump_rpm, cpu_load and plugin sources require one.
func ParseSelector(words []string, sources Sources) (Selector, []string, error) {
	if len(words) == 0 {
		return Selector{}, nil, fmt.Errorf("%w: missing source", ErrInvalidSource)
	}

	name := strings.ToLower(words[0])
	rest := words[1:]
	sel := Selector{Name: name}

	switch name {
	case "temp_liquid":
		sel.Source = statusField(func(s protocol.Status) uint64 { return uint64(s.TempLiquid) })
		return sel, rest, nil
	case "fan_rpm":
		sel.Source = statusField(func(s protocol.Status) uint64 { return uint64(s.FanRPM) })
	case "pump_rpm":
		sel.Source = statusField(func(s protocol.Status) uint64 { return uint64(s.PumpRPM) })
	case "cpu_temp":
		if sources.Host == nil {
			return Selector{}, nil, fmt.Errorf("%w: host sensors unavailable", ErrInvalidSource)
		}
		sel.Source = hostSource{host: sources.Host, read: HostReader.CPUTemperature}
		return sel, rest, nil
	case "cpu_load":
		if sources.Host == nil {
			return Selector{}, nil, fmt.Errorf("%w: host sensors unavailable", ErrInvalidSource)
		}
		sel.Source = hostSource{host: sources.Host, read: HostReader.CPULoad}
	case "plugin":
		if len(rest) < 2 {
			return Selector{}, nil, fmt.Errorf("%w: plugin source needs a provider and a key", ErrInvalidSource)
		}
		provider, key := rest[0], rest[1]
		if sources.Plugins == nil || !sources.Plugins.HasProvider(provider) {
			return Selector{}, nil, fmt.Errorf("%w: no sensor provider %s", ErrInvalidSource, provider)
		}
		sel.Args = []string{provider, key}
		sel.Source = pluginSource{plugins: sources.Plugins, provider: provider, key: key}
		rest = rest[2:]
	default:
		return Selector{}, nil, fmt.Errorf("%w: %s", ErrInvalidSource, words[0])
	}

	if len(rest) == 0 {
		return Selector{}, nil, fmt.Errorf("source %s: missing maximum", name)
	}
	max, err := strconv.ParseUint(rest[0], 10, 64)
	if err != nil || max == 0 {
		return Selector{}, nil, fmt.Errorf("source %s: invalid maximum %s", name, rest[0])
	}
	sel.Max = max
	return sel, rest[1:], nil
}
