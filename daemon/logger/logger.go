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

// Package logger provides structured logging for the kraken daemon.
package logger

import (
	"fmt"
	"os"
	"strings"
)

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger // Create child logger with preset fields
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// Backend is the interface for log output backends
type Backend interface {
	Write(entry *Entry) error
	Close() error
}

// Config holds logger configuration
type Config struct {
	Level     string   // debug, info, warn, error
	Format    string   // text, json
	Outputs   []string // auto, journald, file, stderr
	FilePath  string   // Path to log file
	Component string   // Default component name
}

// standardLogger is the default implementation of Logger. Loggers are
// immutable once built, so With never needs to lock.
type standardLogger struct {
	level     LogLevel
	backends  []Backend
	emitter   *Emitter
	component string
	fields    map[string]interface{}
}

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]LogLevel{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel converts a case-insensitive level name. The empty string is info.
func ParseLevel(level string) (LogLevel, error) {
	if level == "" {
		return LevelInfo, nil
	}
	l, ok := levelNames[strings.ToLower(level)]
	if !ok {
		return LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// String returns the string representation of a LogLevel
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// New creates a new logger with the given configuration and backends. An
// unknown level falls back to info.
func New(config Config, backends []Backend, emitter *Emitter) Logger {
	level, _ := ParseLevel(config.Level)
	return &standardLogger{
		level:     level,
		backends:  backends,
		emitter:   emitter,
		component: config.Component,
		fields:    make(map[string]interface{}),
	}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &standardLogger{level: LevelError + 1, fields: map[string]interface{}{}}
}

// Debug logs a debug message
func (l *standardLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message
func (l *standardLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message
func (l *standardLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message
func (l *standardLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// With creates a child logger with preset fields. A "component" field
// replaces the component instead of becoming a field.
func (l *standardLogger) With(fields ...Field) Logger {
	child := &standardLogger{
		level:     l.level,
		backends:  l.backends,
		emitter:   l.emitter,
		component: l.component,
		fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for _, f := range fields {
		if f.Key == "component" {
			if s, ok := f.Value.(string); ok {
				child.component = s
				continue
			}
		}
		child.fields[f.Key] = f.Value
	}
	return child
}

func (l *standardLogger) log(level LogLevel, msg string, fields ...Field) {
	if level < l.level {
		return
	}

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}

	entry := NewEntry(level.String(), l.component, msg, merged)

	for _, backend := range l.backends {
		if err := backend.Write(entry); err != nil {
			fmt.Fprintf(os.Stderr, "Logger backend error: %v\n", err)
		}
	}

	if l.emitter != nil {
		l.emitter.Emit(entry)
	}
}

// Global logger instance
var (
	std           Logger = Discard()
	globalEmitter *Emitter
)

// Init initializes the global logger
func Init(config Config, backends []Backend, emitter *Emitter) {
	globalEmitter = emitter
	std = New(config, backends, emitter)
}

// Default returns the global logger.
func Default() Logger {
	return std
}

// GetEmitter returns the global emitter for log streaming
func GetEmitter() *Emitter {
	return globalEmitter
}

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	std.Debug(msg, fields...)
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	std.Info(msg, fields...)
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	std.Warn(msg, fields...)
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	std.Error(msg, fields...)
}
