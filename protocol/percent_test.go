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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePercent(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		percent uint
		want    PercentMessage
	}{
		{
			name:    "fan below floor is clamped",
			role:    RoleFan,
			percent: 10,
			want:    PercentMessage{0x02, 0x4d, 0x00, 0x00, 35},
		},
		{
			name:    "fan in range",
			role:    RoleFan,
			percent: 72,
			want:    PercentMessage{0x02, 0x4d, 0x00, 0x00, 72},
		},
		{
			name:    "fan above ceiling",
			role:    RoleFan,
			percent: 250,
			want:    PercentMessage{0x02, 0x4d, 0x00, 0x00, 100},
		},
		{
			name:    "pump below floor",
			role:    RolePump,
			percent: 49,
			want:    PercentMessage{0x02, 0x4d, 0x40, 0x00, 50},
		},
		{
			name:    "pump at floor",
			role:    RolePump,
			percent: 50,
			want:    PercentMessage{0x02, 0x4d, 0x40, 0x00, 50},
		},
		{
			name:    "pump huge value",
			role:    RolePump,
			percent: 1 << 20,
			want:    PercentMessage{0x02, 0x4d, 0x40, 0x00, 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := EncodePercent(tt.role, tt.percent)
			assert.Equal(t, tt.want, msg)
			assert.Equal(t, tt.role, msg.Role())
			assert.Len(t, msg.Bytes(), PercentSize)
		})
	}
}

func TestRoleDefaults(t *testing.T) {
	assert.Equal(t, uint8(35), RoleFan.Default())
	assert.Equal(t, uint8(60), RolePump.Default())

	lo, hi := RolePump.Bounds()
	assert.Equal(t, uint8(50), lo)
	assert.Equal(t, uint8(100), hi)

	assert.Equal(t, "fan", RoleFan.String())
	assert.Equal(t, "pump", RolePump.String())
}
