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

package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCollector_NoErrors(t *testing.T) {
	v := NewCollector()

	v.Check(nil)
	v.CheckMsg(nil, "some message")

	assert.NoError(t, v.Error())
	assert.Equal(t, 0, v.Len())
}

func TestErrorCollector_MultipleErrors(t *testing.T) {
	v := NewCollector()

	v.Check(fmt.Errorf("first error"))
	v.Check(fmt.Errorf("second error"))

	err := v.Error()
	require.Error(t, err)
	assert.Equal(t, 2, v.Len())
	assert.Contains(t, err.Error(), "first error")
	assert.Contains(t, err.Error(), "second error")
}

func TestErrorCollector_WithContext(t *testing.T) {
	v := NewCollector().WithContext("history")
	v.Check(fmt.Errorf("bad driver"))
	v.WithContext("")
	v.Check(fmt.Errorf("bare"))

	err := v.Error()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history: bad driver")
	assert.Contains(t, err.Error(), "\nbare")
}

func TestErrorCollector_CheckMsg(t *testing.T) {
	v := NewCollector().WithContext("attributes")
	v.CheckMsg(fmt.Errorf("invalid value"), "led_ring")

	assert.EqualError(t, v.Error(), "attributes: led_ring: invalid value")
}

func TestErrorCollector_PreservesWrapping(t *testing.T) {
	sentinel := errors.New("sentinel")
	v := NewCollector().WithContext("api")
	v.CheckMsg(sentinel, "listen")

	assert.ErrorIs(t, v.Error(), sentinel)
}
