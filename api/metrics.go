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

package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kraken"

var deviceLabels = []string{"device", "serial_no"}

// Collector reads every attached device at scrape time, so detached devices
// drop out of the output on their own.
type Collector struct {
	devices Devices

	liquidTemp  *prometheus.Desc
	fanRPM      *prometheus.Desc
	pumpRPM     *prometheus.Desc
	fanPercent  *prometheus.Desc
	pumpPercent *prometheus.Desc
	failures    *prometheus.Desc
	statusOK    *prometheus.Desc
}

// NewCollector describes the kraken_* metric family.
func NewCollector(devices Devices) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, deviceLabels, nil)
	}
	return &Collector{
		devices:     devices,
		liquidTemp:  desc("liquid_temperature_celsius", "Coolant temperature reported by the last status reply."),
		fanRPM:      desc("fan_rpm", "Fan speed reported by the last status reply."),
		pumpRPM:     desc("pump_rpm", "Pump speed reported by the last status reply."),
		fanPercent:  desc("fan_percent", "Fan duty most recently requested."),
		pumpPercent: desc("pump_percent", "Pump duty most recently requested."),
		failures:    desc("update_failures_total", "Update ticks that failed."),
		statusOK:    desc("status_ok", "1 when the last status reply was well formed."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.liquidTemp
	ch <- c.fanRPM
	ch <- c.pumpRPM
	ch <- c.fanPercent
	ch <- c.pumpPercent
	ch <- c.failures
	ch <- c.statusOK
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, d := range c.devices.Devices() {
		info := d.Info()
		labels := []string{info.ID, info.Serial}

		gauge := func(desc *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
		}
		gauge(c.liquidTemp, float64(info.Status.TempLiquid))
		gauge(c.fanRPM, float64(info.Status.FanRPM))
		gauge(c.pumpRPM, float64(info.Status.PumpRPM))
		gauge(c.fanPercent, float64(info.FanPercent))
		gauge(c.pumpPercent, float64(info.PumpPercent))

		ok := 1.0
		if info.StatusFailed {
			ok = 0
		}
		gauge(c.statusOK, ok)

		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(info.Failures), labels...)
	}
}
