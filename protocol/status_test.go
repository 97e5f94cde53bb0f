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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStatus(t *testing.T) {
	captured := []byte{
		0x04, 0x1f, 0x05, 0x03, 0x9a, 0x0a, 0x8c,
		0x00, 0x00, 0x00, 0x78, 0x02, 0x00, 0x01, 0x08, 0x1e, 0x00,
	}

	status, err := DecodeStatus(captured)
	require.NoError(t, err)
	assert.Equal(t, uint8(31), status.TempLiquid)
	assert.Equal(t, uint8(5), status.Unknown1)
	assert.Equal(t, uint16(922), status.FanRPM)
	assert.Equal(t, uint16(2700), status.PumpRPM)
}

func TestDecodeStatusRoundTrip(t *testing.T) {
	fixtures := []Status{
		{},
		{TempLiquid: 28, FanRPM: 600, PumpRPM: 1800},
		{TempLiquid: 255, Unknown1: 7, FanRPM: 0xffff, PumpRPM: 0x0100},
	}

	for _, want := range fixtures {
		got, err := DecodeStatus(EncodeStatus(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodeStatusMalformed(t *testing.T) {
	valid := EncodeStatus(Status{TempLiquid: 30})

	badHeader := append([]byte(nil), valid...)
	badHeader[0] = 0x05

	badFooter := append([]byte(nil), valid...)
	badFooter[StatusSize-1] = 0xff

	tests := []struct {
		name       string
		data       []byte
		errContain string
	}{
		{name: "empty", data: nil, errContain: "length 0"},
		{name: "short", data: valid[:5], errContain: "length 5"},
		{name: "long", data: append(append([]byte(nil), valid...), 0x00), errContain: "length 18"},
		{name: "header", data: badHeader, errContain: "invalid header"},
		{name: "footer", data: badFooter, errContain: "invalid footer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStatus(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContain)

			var malformed *MalformedReplyError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.data, malformed.Data)
		})
	}
}

func TestMalformedReplyKeepsCopy(t *testing.T) {
	data := EncodeStatus(Status{})
	data[0] = 0x00

	_, err := DecodeStatus(data)
	var malformed *MalformedReplyError
	require.True(t, errors.As(err, &malformed))

	data[1] = 0xaa
	assert.Equal(t, byte(0x00), malformed.Data[1])
	assert.Contains(t, malformed.Dump(), "00 00 00 00")
}
