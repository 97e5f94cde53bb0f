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

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/kraken/daemon"
)

func statusResponses(devices []interface{}) map[string]*daemon.Response {
	return map[string]*daemon.Response{
		daemon.CmdStatus: {
			Success: true,
			Data: map[string]interface{}{
				"pid":                4242,
				"uptime":             "1h0m0s",
				"socket":             "/var/run/kraken.sock",
				"devices":            []interface{}{"1-4"},
				"update_interval_ms": 1000,
				"history":            true,
				"api":                "127.0.0.1:9062",
				"plugins":            []interface{}{"hostsensors"},
			},
		},
		daemon.CmdDevices: {Success: true, Data: devices},
	}
}

func cooler14(failed bool) map[string]interface{} {
	return map[string]interface{}{
		"id":              "1-4",
		"serial_no":       "1A2B3C",
		"status":          map[string]interface{}{"temp_liquid": 31, "fan_rpm": 850, "pump_rpm": 2100},
		"status_failed":   failed,
		"fan_percent":     35,
		"pump_percent":    60,
		"update_interval": 1000,
		"state":           "running",
		"failures":        2,
	}
}

func TestBoolToStatus(t *testing.T) {
	assert.Equal(t, "Active", boolToStatus(true))
	assert.Equal(t, "Inactive", boolToStatus(false))
}

func TestBoolToYesNo(t *testing.T) {
	assert.Equal(t, "Yes", boolToYesNo(true))
	assert.Equal(t, "No", boolToYesNo(false))
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "halted"},
		{500, "500ms"},
		{1000, "1s"},
		{1500, "1500ms"},
		{60000, "60s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatInterval(tt.ms), "formatInterval(%d)", tt.ms)
	}
}

func TestExecuteStatus(t *testing.T) {
	var buf bytes.Buffer
	mockCli := replyByCommand(statusResponses([]interface{}{cooler14(false)}))

	require.NoError(t, executeStatus(&buf, mockCli, false))

	out := buf.String()
	assert.Contains(t, out, "[OK] Daemon:     Running (PID: 4242)")
	assert.Contains(t, out, "[OK] 1-4 (serial 1A2B3C)")
	assert.Contains(t, out, "Liquid:     31 °C")
	assert.Contains(t, out, "Fan:        850 rpm (35%)")
	assert.Contains(t, out, "Pump:       2100 rpm (60%)")
	assert.Contains(t, out, "kraken status -v")
	assert.NotContains(t, out, "Failures")
}

func TestExecuteStatus_Verbose(t *testing.T) {
	var buf bytes.Buffer
	mockCli := replyByCommand(statusResponses([]interface{}{cooler14(true)}))

	require.NoError(t, executeStatus(&buf, mockCli, true))

	out := buf.String()
	assert.Contains(t, out, "[WARN] 1-4")
	assert.Contains(t, out, "History:      Active")
	assert.Contains(t, out, "HTTP API:     127.0.0.1:9062")
	assert.Contains(t, out, "Plugins:      hostsensors")
	assert.Contains(t, out, "Updates:    running, every 1s")
	assert.Contains(t, out, "Status:     No")
	assert.Contains(t, out, "Failures:   2")
}

func TestExecuteStatus_NoDevices(t *testing.T) {
	var buf bytes.Buffer
	mockCli := replyByCommand(statusResponses([]interface{}{}))

	require.NoError(t, executeStatus(&buf, mockCli, false))
	assert.Contains(t, buf.String(), "[WARN] No coolers attached")
}

func TestExecuteStatus_DaemonError(t *testing.T) {
	mockCli := replyByCommand(map[string]*daemon.Response{
		daemon.CmdStatus: {Success: false, Error: "boom"},
	})

	err := executeStatus(&bytes.Buffer{}, mockCli, false)
	assert.EqualError(t, err, "boom")
}

func TestExecuteDevices(t *testing.T) {
	var buf bytes.Buffer
	halted := cooler14(false)
	halted["id"] = "2-1"
	halted["serial_no"] = ""
	halted["state"] = "halted"
	halted["update_interval"] = 0
	mockCli := replyByCommand(statusResponses([]interface{}{cooler14(false), halted}))

	require.NoError(t, executeDevices(&buf, mockCli))

	assert.Equal(t, "DEVICE  SERIAL  STATE    INTERVAL\n"+
		"1-4     1A2B3C  running  1s\n"+
		"2-1     -       halted   halted\n", buf.String())
}

func TestExecuteRescan(t *testing.T) {
	var buf bytes.Buffer
	mockCli := replyByCommand(map[string]*daemon.Response{
		daemon.CmdRescan: {Success: true, Message: "1 device(s) attached"},
	})

	require.NoError(t, executeRescan(&buf, mockCli))
	assert.Equal(t, "[OK] 1 device(s) attached\n", buf.String())
}
