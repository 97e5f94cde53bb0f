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
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// WriterBackend writes one line per entry to an io.Writer.
type WriterBackend struct {
	w      io.Writer
	format string // "json" or "text"
	mu     sync.Mutex
}

// NewWriterBackend wraps w.
func NewWriterBackend(w io.Writer, format string) *WriterBackend {
	return &WriterBackend{w: w, format: format}
}

// NewStderrBackend is the fallback when neither journald nor a file is used.
func NewStderrBackend(format string) *WriterBackend {
	return NewWriterBackend(os.Stderr, format)
}

// Write writes a log entry to the underlying writer
func (b *WriterBackend) Write(entry *Entry) error {
	line, err := entry.Render(b.format)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, line+"\n"); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	return nil
}

// Close is a no-op; the writer belongs to the caller.
func (b *WriterBackend) Close() error {
	return nil
}

// BufferBackend collects entries in memory (for testing)
type BufferBackend struct {
	*WriterBackend
	buffer *bytes.Buffer
}

// NewBufferBackend creates a new buffer backend
func NewBufferBackend(buffer *bytes.Buffer, format string) *BufferBackend {
	return &BufferBackend{WriterBackend: NewWriterBackend(buffer, format), buffer: buffer}
}

// String returns everything written so far
func (b *BufferBackend) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}
