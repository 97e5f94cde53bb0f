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

// Package validation provides scalar validators and an error collector for
// daemon configuration.
package validation

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ValidatePort validates that a port number is in the valid range [1, 65535].
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of valid range [1, 65535]", port)
	}
	return nil
}

// ValidateListenAddress validates a "host:port" listen address. The host may
// be empty (all interfaces), an IP address or "localhost".
func ValidateListenAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %s (expected 'host:port'): %w", addr, err)
	}
	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("invalid listen host %q", host)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid listen port in %s: %w", addr, err)
	}
	return ValidatePort(port)
}

// ValidateOneOf checks value against a fixed set, case-insensitively.
func ValidateOneOf(what, value string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (must be one of: %s)", what, value, strings.Join(allowed, ", "))
}

// ValidateRange checks min <= v <= max.
func ValidateRange(what string, v, min, max int64) error {
	if v < min || v > max {
		return fmt.Errorf("%s %d out of valid range [%d, %d]", what, v, min, max)
	}
	return nil
}

// ValidateNonNegative rejects negative durations.
func ValidateNonNegative(what string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%s cannot be negative (got %s)", what, d)
	}
	return nil
}

// ValidateAbsPath requires a non-empty absolute path.
func ValidateAbsPath(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute (got %s)", what, path)
	}
	return nil
}

// ValidateName checks a plugin or device name: non-empty, no path
// separators and no whitespace.
func ValidateName(what, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if strings.ContainsAny(name, "/\\ \t\n") {
		return fmt.Errorf("invalid %s %q", what, name)
	}
	return nil
}
