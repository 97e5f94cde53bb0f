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

package main

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/kraken/plugins"
)

type fakeHost struct {
	temp, load float64
	err        error
}

func (f fakeHost) CPUTemperature(ctx context.Context) (float64, error) { return f.temp, f.err }
func (f fakeHost) CPULoad(ctx context.Context) (float64, error)        { return f.load, f.err }

func newTestProvider() *HostSensorsProvider {
	return &HostSensorsProvider{
		host:       fakeHost{temp: 48.5, load: 12.5},
		memPercent: func(ctx context.Context) (float64, error) { return 63, nil },
		loadAvg:    func(ctx context.Context) (float64, error) { return 0.75, nil },
		temps: func(ctx context.Context) ([]host.TemperatureStat, error) {
			return []host.TemperatureStat{
				{SensorKey: "nvme_composite", Temperature: 39},
				{SensorKey: "amdgpu_edge", Temperature: 57},
			}, nil
		},
	}
}

var _ plugins.Provider = (*HostSensorsProvider)(nil)

func TestSensors(t *testing.T) {
	p := newTestProvider()

	sensors, err := p.Sensors(context.Background())
	require.NoError(t, err)

	keys := make([]string, len(sensors))
	for i, s := range sensors {
		keys[i] = s.Key
	}
	assert.Equal(t, []string{
		"cpu_temp", "cpu_load", "mem_used", "load1",
		"temp:amdgpu_edge", "temp:nvme_composite",
	}, keys)
}

func TestReadSensor(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		want      float64
		wantError bool
	}{
		{name: "cpu temperature", key: "cpu_temp", want: 48.5},
		{name: "cpu load", key: "cpu_load", want: 12.5},
		{name: "memory", key: "mem_used", want: 63},
		{name: "load average", key: "load1", want: 0.75},
		{name: "named temperature", key: "temp:amdgpu_edge", want: 57},
		{name: "missing temperature", key: "temp:absent", wantError: true},
		{name: "unknown key", key: "fan9", wantError: true},
	}

	p := newTestProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ReadSensor(context.Background(), tt.key)
			if tt.wantError {
				assert.ErrorContains(t, err, "unknown sensor")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadSensorErrors(t *testing.T) {
	p := newTestProvider()
	p.host = fakeHost{err: errors.New("no sensors")}
	p.temps = func(ctx context.Context) ([]host.TemperatureStat, error) {
		return nil, errors.New("hwmon unreadable")
	}

	_, err := p.ReadSensor(context.Background(), "cpu_temp")
	assert.EqualError(t, err, "no sensors")

	_, err = p.ReadSensor(context.Background(), "temp:nvme_composite")
	assert.EqualError(t, err, "hwmon unreadable")
}

func TestMetadata(t *testing.T) {
	meta, err := newTestProvider().Metadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hostsensors", meta.Name)
	assert.Equal(t, version, meta.Version)
}
