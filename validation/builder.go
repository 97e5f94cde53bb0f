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
)

// ErrorCollector accumulates validation errors so a configuration reports
// every problem at once instead of the first one.
type ErrorCollector struct {
	errs []error
	ctx  string // Optional prefix, e.g. "history" or "attributes.led_ring"
}

// NewCollector creates a new error collector.
func NewCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// WithContext sets the prefix for subsequent errors. An empty ctx clears it.
func (ec *ErrorCollector) WithContext(ctx string) *ErrorCollector {
	ec.ctx = ctx
	return ec
}

// Check collects err if it is non-nil.
func (ec *ErrorCollector) Check(err error) {
	if err == nil {
		return
	}
	if ec.ctx != "" {
		err = fmt.Errorf("%s: %w", ec.ctx, err)
	}
	ec.errs = append(ec.errs, err)
}

// CheckMsg collects err with msg inserted between the prefix and err.
func (ec *ErrorCollector) CheckMsg(err error, msg string) {
	if err == nil {
		return
	}
	ec.Check(fmt.Errorf("%s: %w", msg, err))
}

// Len returns the number of collected errors.
func (ec *ErrorCollector) Len() int {
	return len(ec.errs)
}

// Error joins every collected error, or returns nil.
func (ec *ErrorCollector) Error() error {
	return errors.Join(ec.errs...)
}
