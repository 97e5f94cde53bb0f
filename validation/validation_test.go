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

package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name      string
		port      int
		wantError bool
	}{
		{name: "lowest", port: 1},
		{name: "highest", port: 65535},
		{name: "zero", port: 0, wantError: true},
		{name: "too high", port: 65536, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePort(tt.port)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateListenAddress(t *testing.T) {
	tests := []struct {
		name       string
		addr       string
		errContain string
	}{
		{name: "loopback", addr: "127.0.0.1:9062"},
		{name: "all interfaces", addr: ":9062"},
		{name: "localhost", addr: "localhost:80"},
		{name: "ipv6", addr: "[::1]:9062"},
		{name: "empty", addr: "", errContain: "cannot be empty"},
		{name: "no port", addr: "127.0.0.1", errContain: "expected 'host:port'"},
		{name: "hostname", addr: "example.com:80", errContain: "invalid listen host"},
		{name: "bad port", addr: "127.0.0.1:http", errContain: "invalid listen port"},
		{name: "port range", addr: "127.0.0.1:70000", errContain: "out of valid range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListenAddress(tt.addr)
			if tt.errContain != "" {
				assert.ErrorContains(t, err, tt.errContain)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOneOf(t *testing.T) {
	allowed := []string{"json", "text"}
	assert.NoError(t, ValidateOneOf("format", "json", allowed))
	assert.NoError(t, ValidateOneOf("format", "TEXT", allowed))
	assert.EqualError(t, ValidateOneOf("format", "xml", allowed),
		`invalid format "xml" (must be one of: json, text)`)
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, ValidateRange("every", 1, 1, 10))
	assert.NoError(t, ValidateRange("every", 10, 1, 10))
	assert.EqualError(t, ValidateRange("every", 0, 1, 10), "every 0 out of valid range [1, 10]")
}

func TestValidateNonNegative(t *testing.T) {
	assert.NoError(t, ValidateNonNegative("retention", 0))
	assert.NoError(t, ValidateNonNegative("retention", time.Hour))
	assert.ErrorContains(t, ValidateNonNegative("retention", -time.Second), "cannot be negative")
}

func TestValidateAbsPath(t *testing.T) {
	assert.NoError(t, ValidateAbsPath("path", "/var/lib/kraken/history.db"))
	assert.ErrorContains(t, ValidateAbsPath("path", ""), "cannot be empty")
	assert.ErrorContains(t, ValidateAbsPath("path", "history.db"), "must be absolute")
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{name: "plain", input: "hostsensors"},
		{name: "dashed", input: "gpu-temp"},
		{name: "empty", input: "", wantError: true},
		{name: "slash", input: "../evil", wantError: true},
		{name: "space", input: "two words", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("plugin", tt.input)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
