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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// deviceKey is lifted out of the fields so log streams can filter on it.
const deviceKey = "device"

// Entry represents a single log entry with structured fields
type Entry struct {
	Timestamp string                 `json:"timestamp"` // RFC3339 with milliseconds
	Level     string                 `json:"level"`     // debug, info, warn, error
	Component string                 `json:"component"` // device, manager, server, etc.
	Device    string                 `json:"device,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewEntry creates a new log entry with the current timestamp
func NewEntry(level, component, message string, fields map[string]interface{}) *Entry {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	e := &Entry{
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    fields,
	}
	if id, ok := fields[deviceKey].(string); ok {
		e.Device = id
		delete(fields, deviceKey)
	}
	return e
}

// ToJSON returns the JSON representation of the log entry
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ToText renders the entry on one line with fields in key order.
func (e *Entry) ToText() string {
	var b strings.Builder
	b.WriteString(e.Timestamp)
	b.WriteString(" [")
	b.WriteString(e.Level)
	b.WriteString("]")
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteString("]")
	}
	if e.Device != "" {
		b.WriteString(" [")
		b.WriteString(e.Device)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(jsonString(e.Fields[k]))
	}
	return b.String()
}

// Render formats the entry as one line without a trailing newline.
func (e *Entry) Render(format string) (string, error) {
	if format != "json" {
		return e.ToText(), nil
	}
	data, err := e.ToJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return string(data), nil
}

func jsonString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
