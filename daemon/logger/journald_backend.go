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

package logger

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// journalTag is the SYSLOG_IDENTIFIER of every entry.
const journalTag = "kraken"

// JournaldBackend writes log entries to the systemd journal through
// systemd-cat.
type JournaldBackend struct {
	format string // "json" or "text"
	bin    string
	mu     sync.Mutex
}

// JournaldAvailable reports whether systemd-cat is on PATH.
func JournaldAvailable() bool {
	_, err := exec.LookPath("systemd-cat")
	return err == nil
}

// NewJournaldBackend returns an error if systemd-cat is not available.
func NewJournaldBackend(format string) (*JournaldBackend, error) {
	bin, err := exec.LookPath("systemd-cat")
	if err != nil {
		return nil, fmt.Errorf("systemd-cat not found: %w", err)
	}
	return &JournaldBackend{format: format, bin: bin}, nil
}

// journalPriority maps a level onto a syslog priority.
func journalPriority(level string) string {
	switch level {
	case "debug":
		return "7"
	case "warn":
		return "4"
	case "error":
		return "3"
	default:
		return "6"
	}
}

// Write writes a log entry to systemd journal
func (b *JournaldBackend) Write(entry *Entry) error {
	line, err := entry.Render(b.format)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cmd := exec.Command(b.bin, "-t", journalTag, "-p", journalPriority(entry.Level))
	cmd.Stdin = strings.NewReader(line)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write to journal: %w", err)
	}
	return nil
}

// Close closes the journald backend
func (b *JournaldBackend) Close() error {
	return nil
}
