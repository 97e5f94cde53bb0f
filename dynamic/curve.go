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

package dynamic

import (
	"bytes"
	"context"

	"github.com/we-are-mono/kraken/protocol"
)

// TableSize is the number of entries in a curve, one per index 0..100.
const TableSize = MaxIndex + 1

// Entry is anything a curve can select and send.
type Entry interface {
	Bytes() []byte
}

// Curve maps a selector reading onto one of 101 precomputed entries.
type Curve[E Entry] struct {
	Selector Selector
	Table    [TableSize]E
}

// Select returns the entry for index, saturating above 100.
func (c *Curve[E]) Select(index uint8) E {
	if index > MaxIndex {
		index = MaxIndex
	}
	return c.Table[index]
}

// Evaluate reads the selector and returns the chosen index and entry.
func (c *Curve[E]) Evaluate(ctx context.Context, status protocol.Status) (uint8, E, error) {
	index, err := c.Selector.Evaluate(ctx, status)
	if err != nil {
		var zero E
		return 0, zero, err
	}
	return index, c.Select(index), nil
}

// Tracker remembers the last index and bytes sent for a curve-driven slot.
type Tracker struct {
	index uint8
	valid bool
	sent  []byte
}

// Changed reports whether an entry should be sent. Both the index and the
// encoded bytes must differ from the last committed send.
func (t *Tracker) Changed(index uint8, data []byte) bool {
	if t.valid && index == t.index {
		return false
	}
	if t.sent != nil && bytes.Equal(data, t.sent) {
		return false
	}
	return true
}

// Commit records a successful send.
func (t *Tracker) Commit(index uint8, data []byte) {
	t.index = index
	t.valid = true
	t.sent = bytes.Clone(data)
}

// CommitBytes records a successful static send, which has no index.
func (t *Tracker) CommitBytes(data []byte) {
	t.valid = false
	t.sent = bytes.Clone(data)
}

// Sent reports whether data matches the last committed send.
func (t *Tracker) Sent(data []byte) bool {
	return t.sent != nil && bytes.Equal(data, t.sent)
}

// Reset forgets the previous send.
func (t *Tracker) Reset() {
	*t = Tracker{}
}
