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
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/we-are-mono/kraken/dynamic"
	"github.com/we-are-mono/kraken/plugins"
)

const version = "1.0.0"

// tempPrefix marks per-sensor temperature keys, e.g. "temp:nvme_composite".
const tempPrefix = "temp:"

// HostSensorsProvider serves host readings to the daemon.
type HostSensorsProvider struct {
	host       dynamic.HostReader
	memPercent func(ctx context.Context) (float64, error)
	loadAvg    func(ctx context.Context) (float64, error)
	temps      func(ctx context.Context) ([]host.TemperatureStat, error)
}

// NewHostSensorsProvider reads from the running system through gopsutil.
func NewHostSensorsProvider() *HostSensorsProvider {
	return &HostSensorsProvider{
		host: dynamic.NewHost(),
		memPercent: func(ctx context.Context) (float64, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return vm.UsedPercent, nil
		},
		loadAvg: func(ctx context.Context) (float64, error) {
			avg, err := load.AvgWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return avg.Load1, nil
		},
		temps: host.SensorsTemperaturesWithContext,
	}
}

func (p *HostSensorsProvider) Metadata(ctx context.Context) (plugins.Metadata, error) {
	return plugins.Metadata{
		Name:        "hostsensors",
		Version:     version,
		Description: "Host CPU, memory and temperature sensors",
	}, nil
}

func (p *HostSensorsProvider) Sensors(ctx context.Context) ([]plugins.Sensor, error) {
	sensors := []plugins.Sensor{
		{Key: "cpu_temp", Unit: "C", Description: "Hottest CPU sensor"},
		{Key: "cpu_load", Unit: "%", Description: "CPU utilisation"},
		{Key: "mem_used", Unit: "%", Description: "Used memory"},
		{Key: "load1", Description: "One minute load average"},
	}

	// gopsutil returns partial results with a warning error.
	temps, _ := p.temps(ctx)
	keys := make([]string, 0, len(temps))
	for _, t := range temps {
		keys = append(keys, t.SensorKey)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sensors = append(sensors, plugins.Sensor{Key: tempPrefix + key, Unit: "C"})
	}
	return sensors, nil
}

func (p *HostSensorsProvider) ReadSensor(ctx context.Context, key string) (float64, error) {
	switch key {
	case "cpu_temp":
		return p.host.CPUTemperature(ctx)
	case "cpu_load":
		return p.host.CPULoad(ctx)
	case "mem_used":
		return p.memPercent(ctx)
	case "load1":
		return p.loadAvg(ctx)
	}

	if name, ok := strings.CutPrefix(key, tempPrefix); ok {
		temps, err := p.temps(ctx)
		if err != nil && len(temps) == 0 {
			return 0, err
		}
		for _, t := range temps {
			if t.SensorKey == name {
				return t.Temperature, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown sensor %s", key)
}
