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

package led

import "github.com/we-are-mono/kraken/protocol"

// Batch is the ordered set of messages realizing one configuration. Every
// message shares preset and timing; only the cycle index and colors vary.
type Batch struct {
	Messages []protocol.LedMessage
}

// Len returns the number of messages sent per update.
func (b Batch) Len() int {
	return len(b.Messages)
}

// Bytes concatenates the wire form of every message.
func (b Batch) Bytes() []byte {
	out := make([]byte, 0, len(b.Messages)*protocol.LedSize)
	for _, m := range b.Messages {
		out = append(out, m.Bytes()...)
	}
	return out
}

// Preset returns the preset of the batch, or fixed when it is empty.
func (b Batch) Preset() protocol.Preset {
	if len(b.Messages) == 0 {
		return protocol.PresetFixed
	}
	return b.Messages[0].Preset()
}
