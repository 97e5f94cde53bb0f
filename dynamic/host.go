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
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

// ErrNoCPUSensor is returned when no temperature sensor looks like a CPU.
var ErrNoCPUSensor = errors.New("no cpu temperature sensor")

var cpuSensorKeys = []string{"coretemp", "k10temp", "zenpower", "cpu", "package", "tctl", "tdie"}

// Host reads host sensors through gopsutil.
type Host struct{}

// NewHost returns a HostReader backed by gopsutil.
func NewHost() *Host {
	return &Host{}
}

// CPUTemperature returns the hottest CPU-like sensor in degrees Celsius.
func (h *Host) CPUTemperature(ctx context.Context) (float64, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return 0, err
	}

	hottest, found := 0.0, false
	for _, t := range temps {
		if !isCPUSensor(t.SensorKey) {
			continue
		}
		if !found || t.Temperature > hottest {
			hottest, found = t.Temperature, true
		}
	}
	if !found {
		return 0, ErrNoCPUSensor
	}
	return hottest, nil
}

// CPULoad returns overall CPU utilisation in percent since the previous call.
func (h *Host) CPULoad(ctx context.Context) (float64, error) {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, nil
	}
	return percentages[0], nil
}

func isCPUSensor(key string) bool {
	key = strings.ToLower(key)
	for _, k := range cpuSensorKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
