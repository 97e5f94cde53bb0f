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

package dynamic

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/we-are-mono/kraken/protocol"
)

type fakeHost struct {
	temp float64
	load float64
	err  error
}

func (h *fakeHost) CPUTemperature(context.Context) (float64, error) { return h.temp, h.err }
func (h *fakeHost) CPULoad(context.Context) (float64, error)        { return h.load, h.err }

type fakeSensors struct {
	providers map[string]map[string]float64
}

func (f *fakeSensors) HasProvider(name string) bool {
	_, ok := f.providers[name]
	return ok
}

func (f *fakeSensors) ReadSensor(_ context.Context, provider, key string) (float64, error) {
	v, ok := f.providers[provider][key]
	if !ok {
		return 0, errors.New("no such sensor")
	}
	return v, nil
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		max  uint64
		want uint8
	}{
		{name: "raw", v: 42, want: 42},
		{name: "raw saturates", v: 180, want: 100},
		{name: "scaled", v: 1000, max: 2000, want: 50},
		{name: "scaled truncates", v: 1999, max: 2000, want: 99},
		{name: "at max", v: 2000, max: 2000, want: 100},
		{name: "above max", v: 9000, max: 2000, want: 100},
		{name: "huge max does not wrap", v: math.MaxUint64 / 2, max: math.MaxUint64, want: 49},
		{name: "huge value below huge max", v: math.MaxUint64 - 1, max: math.MaxUint64, want: 99},
		{name: "small max", v: 1, max: 3, want: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.v, tt.max))
		})
	}
}

func TestParseSelector(t *testing.T) {
	sources := Sources{
		Host: &fakeHost{temp: 55.7, load: 25},
		Plugins: &fakeSensors{providers: map[string]map[string]float64{
			"gpu": {"edge": 61},
		}},
	}
	status := protocol.Status{TempLiquid: 31, FanRPM: 900, PumpRPM: 2700}

	tests := []struct {
		name      string
		input     string
		wantIndex uint8
		wantRest  int
		wantStr   string
	}{
		{name: "temp_liquid", input: "temp_liquid fff", wantIndex: 31, wantRest: 1, wantStr: "temp_liquid"},
		{name: "fan_rpm", input: "fan_rpm 1800", wantIndex: 50, wantStr: "fan_rpm 1800"},
		{name: "pump_rpm", input: "PUMP_RPM 2700 a b", wantIndex: 100, wantRest: 2, wantStr: "pump_rpm 2700"},
		{name: "cpu_temp", input: "cpu_temp", wantIndex: 55, wantStr: "cpu_temp"},
		{name: "cpu_load", input: "cpu_load 50", wantIndex: 50, wantStr: "cpu_load 50"},
		{name: "plugin", input: "plugin gpu edge 122", wantIndex: 50, wantStr: "plugin gpu edge 122"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, rest, err := ParseSelector(strings.Fields(tt.input), sources)
			require.NoError(t, err)
			assert.Len(t, rest, tt.wantRest)
			assert.Equal(t, tt.wantStr, sel.String())

			idx, err := sel.Evaluate(context.Background(), status)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}

func TestParseSelectorErrors(t *testing.T) {
	sources := Sources{Plugins: &fakeSensors{providers: map[string]map[string]float64{"gpu": {}}}}

	tests := []struct {
		name          string
		input         string
		invalidSource bool
		errContain    string
	}{
		{name: "empty", input: "", invalidSource: true},
		{name: "unknown", input: "gpu_temp", invalidSource: true},
		{name: "no host", input: "cpu_temp", invalidSource: true},
		{name: "unknown provider", input: "plugin disk nvme0 80", invalidSource: true},
		{name: "plugin missing key", input: "plugin gpu", invalidSource: true},
		{name: "missing max", input: "fan_rpm", errContain: "missing maximum"},
		{name: "zero max", input: "fan_rpm 0", errContain: "invalid maximum"},
		{name: "bad max", input: "pump_rpm fast", errContain: "invalid maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseSelector(strings.Fields(tt.input), sources)
			require.Error(t, err)
			assert.Equal(t, tt.invalidSource, errors.Is(err, ErrInvalidSource), err.Error())
			if tt.errContain != "" {
				assert.Contains(t, err.Error(), tt.errContain)
			}
		})
	}
}

func TestEvaluateReadFailure(t *testing.T) {
	sources := Sources{Host: &fakeHost{err: errors.New("no sensors")}}
	sel, _, err := ParseSelector([]string{"cpu_temp"}, sources)
	require.NoError(t, err)

	_, err = sel.Evaluate(context.Background(), protocol.Status{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidSource))
	assert.Contains(t, err.Error(), "read cpu_temp")
}

func TestIsCPUSensor(t *testing.T) {
	assert.True(t, isCPUSensor("coretemp_package_id_0"))
	assert.True(t, isCPUSensor("k10temp_tctl"))
	assert.False(t, isCPUSensor("nvme_composite"))
	assert.False(t, isCPUSensor("acpitz"))
}
