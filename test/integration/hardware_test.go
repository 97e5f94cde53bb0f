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

//go:build integration
// +build integration

package integration

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/device"
	"github.com/we-are-mono/kraken/history"
)

func TestCoolerAttach(t *testing.T) {
	h := NewTestHarness(t)
	info := h.RequireCooler()
	h.StartDaemon()
	h.WaitForDevices(1, 5*time.Second)

	resp := h.MustSucceed(daemon.Request{Command: daemon.CmdInfo, Device: info.Name})
	var got device.Info
	decode(t, resp, &got)
	assert.Equal(t, info.Name, got.ID)
	assert.Equal(t, "running", got.State)

	h.MustSucceed(daemon.Request{Command: daemon.CmdWait, Device: info.Name, TimeoutMS: 5000})

	resp = h.MustSucceed(daemon.Request{Command: daemon.CmdGet, Device: info.Name, Attribute: device.AttrTempLiquid})
	var v daemon.AttributeValue
	decode(t, resp, &v)
	assert.NotEqual(t, "0", v.Value, "liquid temperature should be read from the device")
}

func TestCoolerSetPercentAndLeds(t *testing.T) {
	h := NewTestHarness(t)
	info := h.RequireCooler()
	h.StartDaemon()
	h.WaitForDevices(1, 5*time.Second)

	writes := []struct{ name, value string }{
		{device.AttrFanPercent, "50"},
		{device.AttrPumpPercent, "dynamic temp_liquid 0:60 40:60 50:100"},
		{device.AttrLedLogo, "breathing color 00f color 0ff interval normal"},
		{device.AttrLedRing, "marquee direction backward group_size 4 colors f00 0f0 00f fff 000 f00 0f0 00f"},
	}
	for _, w := range writes {
		h.MustSucceed(daemon.Request{Command: daemon.CmdSet, Device: info.Name, Attribute: w.name, Value: w.value})
	}

	// Two completed ticks guarantee the writes reached the device.
	for i := 0; i < 2; i++ {
		h.MustSucceed(daemon.Request{Command: daemon.CmdWait, Device: info.Name, TimeoutMS: 5000})
	}

	resp := h.MustSucceed(daemon.Request{Command: daemon.CmdGet, Device: info.Name, Attribute: device.AttrFanPercent})
	var v daemon.AttributeValue
	decode(t, resp, &v)
	assert.Equal(t, "50", v.Value)

	resp = h.MustSucceed(daemon.Request{Command: daemon.CmdGet, Device: info.Name, Attribute: device.AttrStatusFailed})
	decode(t, resp, &v)
	assert.Equal(t, "0", v.Value)
}

func TestCoolerHistoryAndMetrics(t *testing.T) {
	h := NewTestHarness(t)
	info := h.RequireCooler()
	h.Config.UpdateIntervalMS = 500
	h.StartDaemon()
	h.WaitForDevices(1, 5*time.Second)

	for i := 0; i < 3; i++ {
		h.MustSucceed(daemon.Request{Command: daemon.CmdWait, Device: info.Name, TimeoutMS: 5000})
	}

	require.Eventually(t, func() bool {
		resp, err := h.SendRequest(daemon.Request{Command: daemon.CmdHistory, Device: info.Name, Limit: 10})
		if err != nil || !resp.Success {
			return false
		}
		var samples []history.Sample
		decode(t, resp, &samples)
		return len(samples) >= 2
	}, 10*time.Second, 200*time.Millisecond)

	resp, err := http.Get("http://" + apiListen + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kraken_fan_rpm{device="`+info.Name+`",`)
	assert.Contains(t, string(body), "kraken_update_failures_total")
}

func TestCoolerIntervalHalt(t *testing.T) {
	h := NewTestHarness(t)
	info := h.RequireCooler()
	h.StartDaemon()
	h.WaitForDevices(1, 5*time.Second)

	h.MustSucceed(daemon.Request{Command: daemon.CmdInterval, Device: info.Name, Value: "0"})

	resp, err := h.SendRequest(daemon.Request{Command: daemon.CmdWait, Device: info.Name, TimeoutMS: 1500})
	require.NoError(t, err)
	assert.False(t, resp.Success, "a halted cooler never completes an update")

	h.MustSucceed(daemon.Request{Command: daemon.CmdInterval, Device: info.Name, Value: "200"})
	resp = h.MustSucceed(daemon.Request{Command: daemon.CmdInterval, Device: info.Name})
	var v daemon.AttributeValue
	decode(t, resp, &v)
	assert.Equal(t, "500", v.Value)
}
