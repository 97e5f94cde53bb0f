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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/daemon/logger"
)

func TestExecuteInterval(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		var buf bytes.Buffer
		mockCli := replyByCommand(map[string]*daemon.Response{
			daemon.CmdInterval: {Success: true, Data: map[string]interface{}{"value": "1000"}},
		})

		require.NoError(t, executeInterval(&buf, mockCli, "", nil))
		assert.Equal(t, "1000\n", buf.String())
		assert.Empty(t, mockCli.requests[0].Value)
	})

	t.Run("write", func(t *testing.T) {
		var buf bytes.Buffer
		mockCli := replyByCommand(map[string]*daemon.Response{
			daemon.CmdInterval: {Success: true, Message: "update_interval set on 1-4"},
		})

		require.NoError(t, executeInterval(&buf, mockCli, "1-4", []string{"2000"}))
		assert.Equal(t, "update_interval set on 1-4\n", buf.String())
		assert.Equal(t, "2000", mockCli.requests[0].Value)
		assert.Equal(t, "1-4", mockCli.requests[0].Device)
	})

	t.Run("error", func(t *testing.T) {
		mockCli := replyByCommand(map[string]*daemon.Response{
			daemon.CmdInterval: {Success: false, Error: "update_interval: invalid value: soon"},
		})
		err := executeInterval(&bytes.Buffer{}, mockCli, "", []string{"soon"})
		assert.ErrorContains(t, err, "invalid value")
	})
}

func TestExecuteWait(t *testing.T) {
	var buf bytes.Buffer
	mockCli := replyByCommand(map[string]*daemon.Response{
		daemon.CmdWait: {Success: true, Data: map[string]interface{}{"device": "1-4", "attribute": "update_indicator", "value": "1"}},
	})

	require.NoError(t, executeWait(&buf, mockCli, "", 2*time.Second))
	assert.Equal(t, "[OK] 1-4 updated\n", buf.String())
	assert.Equal(t, int64(2000), mockCli.requests[0].TimeoutMS)
}

func samples(temps ...int) []interface{} {
	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	out := make([]interface{}, len(temps))
	for i, temp := range temps {
		out[i] = map[string]interface{}{
			"device":      "1-4",
			"time":        start.Add(time.Duration(i) * 10 * time.Second).Format(time.RFC3339Nano),
			"temp_liquid": temp,
			"fan_rpm":     800 + 10*i,
		}
	}
	return out
}

func TestExecuteHistory(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		limit          int
		response       *daemon.Response
		wantContain    []string
		wantErrContain string
	}{
		{
			name:        "plots temperature",
			field:       "temp_liquid",
			limit:       10,
			response:    &daemon.Response{Success: true, Data: samples(30, 31, 33, 32)},
			wantContain: []string{"1-4 temp_liquid, ", "30.00 ┼", "┤"},
		},
		{
			name:        "plots fan speed",
			field:       "fan_rpm",
			limit:       10,
			response:    &daemon.Response{Success: true, Data: samples(30, 31, 33, 32)},
			wantContain: []string{"1-4 fan_rpm, ", "800.00 ┼"},
		},
		{
			name:        "no samples",
			field:       "temp_liquid",
			limit:       10,
			response:    &daemon.Response{Success: true, Data: []interface{}{}},
			wantContain: []string{"No samples recorded yet"},
		},
		{
			name:           "unknown field",
			field:          "voltage",
			limit:          10,
			response:       &daemon.Response{Success: true, Data: samples(30)},
			wantErrContain: "voltage",
		},
		{
			name:           "history disabled",
			field:          "temp_liquid",
			limit:          10,
			response:       &daemon.Response{Success: false, Error: "history is disabled"},
			wantErrContain: "history is disabled",
		},
		{
			name:           "bad limit",
			field:          "temp_liquid",
			limit:          0,
			wantErrContain: "limit must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mockCli := replyByCommand(map[string]*daemon.Response{daemon.CmdHistory: tt.response})

			err := executeHistory(&buf, mockCli, "1-4", tt.field, tt.limit)
			if tt.wantErrContain != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrContain)
				return
			}

			require.NoError(t, err)
			for _, want := range tt.wantContain {
				assert.Contains(t, buf.String(), want)
			}
			assert.Equal(t, tt.limit, mockCli.requests[0].Limit)
		})
	}
}

func TestExecutePlugins(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		var buf bytes.Buffer
		mockCli := replyByCommand(map[string]*daemon.Response{daemon.CmdPlugins: {Success: true, Data: []interface{}{}}})
		require.NoError(t, executePlugins(&buf, mockCli))
		assert.Equal(t, "No plugins loaded\n", buf.String())
	})

	t.Run("listed", func(t *testing.T) {
		var buf bytes.Buffer
		mockCli := replyByCommand(map[string]*daemon.Response{daemon.CmdPlugins: {
			Success: true,
			Data: []interface{}{map[string]interface{}{
				"name":     "hostsensors",
				"metadata": map[string]interface{}{"name": "hostsensors", "version": "1.0.0"},
				"sensors":  []interface{}{map[string]interface{}{"key": "cpu_temp"}, map[string]interface{}{"key": "mem_used"}},
			}},
		}})
		require.NoError(t, executePlugins(&buf, mockCli))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, []string{"hostsensors", "1.0.0", "cpu_temp,", "mem_used"}, strings.Fields(lines[1]))
	})
}

func TestJournalctlArgs(t *testing.T) {
	assert.Equal(t, []string{"journalctl", "-t", "kraken", "-n", "50", "--no-pager"},
		journalctlArgs(false, 50, ""))
	assert.Equal(t, []string{"journalctl", "-t", "kraken", "-f", "--since", "1 hour ago"},
		journalctlArgs(true, 50, "1 hour ago"))
}

func TestTailArgs(t *testing.T) {
	assert.Equal(t, []string{"tail", "-n", "20", "/tmp/k.log"}, tailArgs(false, 20, "/tmp/k.log"))
	assert.Equal(t, []string{"tail", "-f", "/tmp/k.log"}, tailArgs(true, 0, "/tmp/k.log"))
}

func TestPrintEntry(t *testing.T) {
	var buf bytes.Buffer
	printEntry(&buf, logger.Entry{
		Timestamp: "2025-01-02T10:00:00.000Z",
		Level:     "warn",
		Component: "device",
		Device:    "1-4",
		Message:   "Status read failed",
		Fields:    map[string]interface{}{"zeta": 1, "error": "timeout"},
	})
	assert.Equal(t, "[2025-01-02T10:00:00.000Z] [warn] device 1-4: Status read failed error=timeout zeta=1\n", buf.String())

	buf.Reset()
	printEntry(&buf, logger.Entry{Timestamp: "T", Level: "info", Component: "daemon", Message: "Daemon listening"})
	assert.Equal(t, "[T] [info] daemon: Daemon listening\n", buf.String())
}

func TestPIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "kraken.pid")

	t.Run("env override", func(t *testing.T) {
		t.Setenv("KRAKEN_PID_FILE", pidFile)
		assert.Equal(t, pidFile, pidFilePath())
		t.Setenv("KRAKEN_PID_FILE", "")
		assert.Equal(t, DefaultPIDFile, pidFilePath())
	})

	t.Run("no file", func(t *testing.T) {
		assert.NoError(t, checkExistingDaemon(pidFile))
	})

	t.Run("running", func(t *testing.T) {
		require.NoError(t, writePIDFile(pidFile))
		err := checkExistingDaemon(pidFile)
		assert.ErrorContains(t, err, fmt.Sprintf("daemon already running with PID %d", os.Getpid()))
	})

	t.Run("garbage", func(t *testing.T) {
		require.NoError(t, os.WriteFile(pidFile, []byte("nope\n"), 0600))
		assert.ErrorContains(t, checkExistingDaemon(pidFile), "invalid PID")
	})
}
