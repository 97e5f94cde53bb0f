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

package protocol

import (
	"errors"
	"fmt"
	"time"
)

// Serial number query: GET_DESCRIPTOR for string descriptor 3, US English.
const (
	SerialRequestType = 0x80
	SerialRequest     = 0x06
	SerialValue       = 0x0303
	SerialIndex       = 0x0409
	SerialTimeout     = 1000 * time.Millisecond

	// SerialMaxLen is the longest serial number accepted, in characters.
	SerialMaxLen = 64

	// SerialBufferSize holds the length byte, the type byte and
	// SerialMaxLen UTF-16 code units.
	SerialBufferSize = 2 + SerialMaxLen*2

	stringDescriptorType = 0x03
)

var (
	// ErrInvalidEncoding reports a serial number code unit outside ASCII.
	ErrInvalidEncoding = errors.New("serial number contains non-ASCII character")

	// ErrOverflow reports a declared length larger than the buffer allows.
	ErrOverflow = errors.New("serial number too long")
)

// DecodeSerial converts a UTF-16LE string descriptor into ASCII. data holds
// the n bytes actually received.
func DecodeSerial(data []byte) (string, error) {
	if len(data) < 2 {
		return "", fmt.Errorf("string descriptor too short: %d bytes", len(data))
	}
	if data[1] != stringDescriptorType {
		return "", fmt.Errorf("unexpected descriptor type %#02x", data[1])
	}
	if data[0] < 2 || (data[0]-2)%2 != 0 {
		return "", fmt.Errorf("invalid descriptor length %d", data[0])
	}

	n := int(data[0]-2) / 2
	if n > SerialMaxLen {
		return "", fmt.Errorf("%w: %d characters", ErrOverflow, n)
	}
	if 2+2*n > len(data) {
		return "", fmt.Errorf("%w: declared %d characters, received %d bytes", ErrOverflow, n, len(data))
	}

	serial := make([]byte, n)
	for i := 0; i < n; i++ {
		lo, hi := data[2+2*i], data[3+2*i]
		if hi != 0x00 {
			return "", fmt.Errorf("%w: UTF-16 %#02x%02x at index %d", ErrInvalidEncoding, hi, lo, i)
		}
		serial[i] = lo
	}
	return string(serial), nil
}

// EncodeSerial builds the string descriptor a device would return for s.
func EncodeSerial(s string) []byte {
	data := make([]byte, 2+2*len(s))
	data[0] = byte(len(data))
	data[1] = stringDescriptorType
	for i := 0; i < len(s); i++ {
		data[2+2*i] = s[i]
	}
	return data
}
