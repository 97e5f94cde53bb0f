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

// Package protocol encodes and decodes the fixed-size binary messages spoken
// by Kraken X62 (1e71:170e) coolers. Nothing in here performs I/O.
package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// StatusSize is the length of a status reply read from the interrupt endpoint.
const StatusSize = 17

var (
	statusHeader = []byte{0x04}
	statusFooter = []byte{0x00, 0x00, 0x00, 0x78, 0x02, 0x00, 0x01, 0x08, 0x1e, 0x00}
)

// Byte offsets inside a status reply.
const (
	offsetTempLiquid = 1
	offsetUnknown1   = 2
	offsetFanRPM     = 3
	offsetPumpRPM    = 5
)

// Status holds the fields decoded from one status reply.
type Status struct {
	TempLiquid uint8  `json:"temp_liquid"`
	Unknown1   uint8  `json:"unknown_1"`
	FanRPM     uint16 `json:"fan_rpm"`
	PumpRPM    uint16 `json:"pump_rpm"`
}

// MalformedReplyError is returned when a status reply fails its structural
// checks. Data is a copy of the offending bytes.
type MalformedReplyError struct {
	Reason string
	Data   []byte
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("malformed status reply: %s: %s", e.Reason, hex.EncodeToString(e.Data))
}

// Dump renders the offending bytes the way hex dumps appear in the logs.
func (e *MalformedReplyError) Dump() string {
	return hex.Dump(e.Data)
}

// DecodeStatus validates a raw status reply and extracts its fields.
// The length is checked before any offset is touched.
func DecodeStatus(data []byte) (Status, error) {
	if len(data) != StatusSize {
		return Status{}, &MalformedReplyError{
			Reason: fmt.Sprintf("length %d, expected %d", len(data), StatusSize),
			Data:   bytes.Clone(data),
		}
	}
	if !bytes.Equal(data[:len(statusHeader)], statusHeader) {
		return Status{}, &MalformedReplyError{Reason: "invalid header", Data: bytes.Clone(data)}
	}
	if !bytes.Equal(data[StatusSize-len(statusFooter):], statusFooter) {
		return Status{}, &MalformedReplyError{Reason: "invalid footer", Data: bytes.Clone(data)}
	}

	return Status{
		TempLiquid: data[offsetTempLiquid],
		Unknown1:   data[offsetUnknown1],
		FanRPM:     binary.BigEndian.Uint16(data[offsetFanRPM:]),
		PumpRPM:    binary.BigEndian.Uint16(data[offsetPumpRPM:]),
	}, nil
}

// EncodeStatus builds a well-formed status reply carrying s. The device never
// receives this; it exists for simulators and fixtures.
func EncodeStatus(s Status) []byte {
	data := make([]byte, StatusSize)
	copy(data, statusHeader)
	copy(data[StatusSize-len(statusFooter):], statusFooter)
	data[offsetTempLiquid] = s.TempLiquid
	data[offsetUnknown1] = s.Unknown1
	binary.BigEndian.PutUint16(data[offsetFanRPM:], s.FanRPM)
	binary.BigEndian.PutUint16(data[offsetPumpRPM:], s.PumpRPM)
	return data
}
