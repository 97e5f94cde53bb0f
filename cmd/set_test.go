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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/kraken/daemon"
)

func TestParseSetArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantName  string
		wantValue string
		wantError bool
	}{
		{
			name:      "percent",
			args:      []string{"fan_percent", "60"},
			wantName:  "fan_percent",
			wantValue: "60",
		},
		{
			name:      "curve joins the remaining words",
			args:      []string{"pump_percent", "dynamic", "temp_liquid", "0:60", "45:100"},
			wantName:  "pump_percent",
			wantValue: "dynamic temp_liquid 0:60 45:100",
		},
		{
			name:      "quoted value passes through",
			args:      []string{"led_logo", "fixed color ff8800"},
			wantName:  "led_logo",
			wantValue: "fixed color ff8800",
		},
		{
			name:      "missing value",
			args:      []string{"fan_percent"},
			wantError: true,
		},
		{
			name:      "no arguments",
			args:      []string{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, value, err := parseSetArgs(tt.args)

			if tt.wantError {
				assert.Error(t, err, "parseSetArgs() expected error, got nil")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestExecuteSet(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		mockResponse   *daemon.Response
		mockError      error
		wantError      bool
		wantOutput     string
		wantErrContain string
	}{
		{
			name: "successful set",
			args: []string{"fan_percent", "60"},
			mockResponse: &daemon.Response{
				Success: true,
				Message: "fan_percent set on 1-4",
			},
			wantOutput: "fan_percent set on 1-4\n",
		},
		{
			name: "rejected value",
			args: []string{"led_ring", "marquee", "color", "fff"},
			mockResponse: &daemon.Response{
				Success: false,
				Error:   "led_ring: illegal key color",
			},
			wantError:      true,
			wantErrContain: "illegal key color",
		},
		{
			name:           "connection error",
			args:           []string{"fan_percent", "60"},
			mockError:      fmt.Errorf("failed to connect to daemon"),
			wantError:      true,
			wantErrContain: "failed to connect",
		},
		{
			name:           "argument error is reported before sending",
			args:           []string{"fan_percent"},
			wantError:      true,
			wantErrContain: "requires an attribute and a value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mockCli := &mockClient{
				sendFunc: func(req daemon.Request) (*daemon.Response, error) {
					if tt.mockError != nil {
						return nil, tt.mockError
					}
					return tt.mockResponse, nil
				},
			}

			err := executeSet(&buf, mockCli, "1-4", tt.args)

			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrContain)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, buf.String())
			require.Len(t, mockCli.requests, 1)
			assert.Equal(t, daemon.CmdSet, mockCli.requests[0].Command)
			assert.Equal(t, "1-4", mockCli.requests[0].Device)
			assert.Equal(t, tt.args[0], mockCli.requests[0].Attribute)
		})
	}
}
