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

// Package device drives one attached cooler: it owns the status snapshot, the
// attribute slots and the scheduler that serializes every transfer.
package device

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/dynamic"
	"github.com/we-are-mono/kraken/led"
	"github.com/we-are-mono/kraken/protocol"
)

// Update describes one completed tick.
type Update struct {
	Device       string
	Time         time.Time
	Status       protocol.Status
	StatusFailed bool
	FanPercent   uint8
	PumpPercent  uint8
	Err          error
}

// Observer is told about every completed tick. Implementations must not
// block; they run on the scheduler's worker.
type Observer interface {
	OnUpdate(u Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(u Update)

func (f ObserverFunc) OnUpdate(u Update) { f(u) }

// Options configure Attach.
type Options struct {
	ID        string
	Interval  time.Duration
	Sources   dynamic.Sources
	Logger    logger.Logger
	Observers []Observer
}

// Info is a point-in-time summary of a device.
type Info struct {
	ID           string          `json:"id"`
	Serial       string          `json:"serial_no"`
	Status       protocol.Status `json:"status"`
	Updated      time.Time       `json:"updated"`
	StatusFailed bool            `json:"status_failed"`
	FanPercent   uint8           `json:"fan_percent"`
	PumpPercent  uint8           `json:"pump_percent"`
	IntervalMS   int64           `json:"update_interval"`
	State        string          `json:"state"`
	Failures     uint64          `json:"failures"`
}

type flusher interface {
	Name() string
	Flush(ctx context.Context, h Handle, status protocol.Status, log logger.Logger) (bool, error)
}

// Device is an attached cooler. It is created by Attach and torn down by
// Detach; nothing outlives it.
type Device struct {
	id     string
	serial string
	handle Handle
	log    logger.Logger

	sources dynamic.Sources

	snapshot Snapshot
	fan      *Slot[protocol.PercentMessage]
	pump     *Slot[protocol.PercentMessage]
	logo     *Slot[led.Batch]
	ring     *Slot[led.Batch]
	sync     *Slot[led.Batch]

	scheduler *Scheduler
	failures  atomic.Uint64

	obsMu     sync.RWMutex
	observers []Observer

	detachOnce sync.Once
}

// Attach takes ownership of h, reads the serial number and starts the
// scheduler. Fan and pump start at their defaults so the first tick programs
// them. A failed serial query is logged and leaves the serial empty.
func Attach(ctx context.Context, h Handle, opts Options) (*Device, error) {
	if h == nil {
		return nil, errors.New("attach: nil handle")
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(
		logger.Field{Key: "component", Value: "device"},
		logger.Field{Key: "device", Value: opts.ID},
	)

	d := &Device{
		id:        opts.ID,
		handle:    h,
		log:       log,
		sources:   opts.Sources,
		fan:       newSlot(AttrFanPercent, writePercent),
		pump:      newSlot(AttrPumpPercent, writePercent),
		logo:      newSlot(AttrLedLogo, ledWriter(protocol.WhichLogo)),
		ring:      newSlot(AttrLedRing, ledWriter(protocol.WhichRing)),
		sync:      newSlot(AttrLedSync, ledWriter(protocol.WhichSync)),
		observers: append([]Observer(nil), opts.Observers...),
	}
	d.fan.skipStatic = true
	d.pump.skipStatic = true

	serial, err := querySerial(ctx, h)
	if err != nil {
		log.Warn("Failed to read serial number", logger.Field{Key: "error", Value: err.Error()})
	}
	d.serial = serial

	d.fan.SetStatic(protocol.EncodePercent(protocol.RoleFan, uint(protocol.RoleFan.Default())))
	d.pump.SetStatic(protocol.EncodePercent(protocol.RolePump, uint(protocol.RolePump.Default())))

	d.scheduler = NewScheduler(opts.Interval, d.update, log)
	log.Info("Device attached",
		logger.Field{Key: "serial_no", Value: serial},
		logger.Field{Key: "update_interval_ms", Value: d.scheduler.Interval().Milliseconds()})
	return d, nil
}

func querySerial(ctx context.Context, h Handle) (string, error) {
	buf := make([]byte, protocol.SerialBufferSize)
	n, err := h.ControlTransfer(ctx, protocol.SerialRequestType, protocol.SerialRequest,
		protocol.SerialValue, protocol.SerialIndex, buf, protocol.SerialTimeout)
	if err != nil {
		return "", &TransportError{Op: "serial_no", Err: err}
	}
	return protocol.DecodeSerial(buf[:n])
}

// Detach stops the scheduler, wakes waiters and closes the handle.
func (d *Device) Detach() error {
	var err error
	d.detachOnce.Do(func() {
		d.scheduler.Stop()
		err = d.handle.Close()
		d.log.Info("Device detached")
	})
	return err
}

// ID returns the identifier the device was attached with.
func (d *Device) ID() string {
	return d.id
}

// Serial returns the serial number read at attach.
func (d *Device) Serial() string {
	return d.serial
}

// Scheduler exposes the update scheduler.
func (d *Device) Scheduler() *Scheduler {
	return d.scheduler
}

// Snapshot exposes the status snapshot.
func (d *Device) Snapshot() *Snapshot {
	return &d.snapshot
}

// AddObserver registers o for subsequent ticks.
func (d *Device) AddObserver(o Observer) {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	d.observers = append(d.observers, o)
}

// Info summarizes the device.
func (d *Device) Info() Info {
	status, updated := d.snapshot.Get()
	return Info{
		ID:           d.id,
		Serial:       d.serial,
		Status:       status,
		Updated:      updated,
		StatusFailed: d.snapshot.Failed(),
		FanPercent:   percentOf(d.fan, protocol.RoleFan),
		PumpPercent:  percentOf(d.pump, protocol.RolePump),
		IntervalMS:   d.scheduler.Interval().Milliseconds(),
		State:        d.scheduler.State().String(),
		Failures:     d.failures.Load(),
	}
}

// Failures returns the number of ticks that ended in an error.
func (d *Device) Failures() uint64 {
	return d.failures.Load()
}

// update is one tick: refresh status, then flush each slot in declaration
// order. The first transfer failure ends the tick; the remaining slots are
// attempted next time. A malformed status reply is reported and the slots
// proceed with the retained snapshot.
func (d *Device) update(ctx context.Context) error {
	malformed, err := d.flushAll(ctx)
	if err != nil || malformed {
		d.failures.Add(1)
	}

	status, _ := d.snapshot.Get()
	u := Update{
		Device:       d.id,
		Time:         time.Now(),
		Status:       status,
		StatusFailed: d.snapshot.Failed(),
		FanPercent:   percentOf(d.fan, protocol.RoleFan),
		PumpPercent:  percentOf(d.pump, protocol.RolePump),
		Err:          err,
	}

	d.obsMu.RLock()
	observers := d.observers
	d.obsMu.RUnlock()
	for _, o := range observers {
		o.OnUpdate(u)
	}
	return err
}

// flushAll reports a malformed status reply separately from err so the tick
// is counted as failed once.
func (d *Device) flushAll(ctx context.Context) (bool, error) {
	badReply := false
	if err := d.snapshot.refresh(ctx, d.handle); err != nil {
		var malformed *protocol.MalformedReplyError
		if !errors.As(err, &malformed) {
			return false, err
		}
		badReply = true
		d.log.Error("Received invalid status message",
			logger.Field{Key: "reason", Value: malformed.Reason},
			logger.Field{Key: "data", Value: malformed.Dump()})
	}

	status, _ := d.snapshot.Get()
	for _, slot := range []flusher{d.fan, d.pump, d.logo, d.ring, d.sync} {
		sent, err := slot.Flush(ctx, d.handle, status, d.log)
		if err != nil {
			return badReply, err
		}
		if sent {
			d.log.Debug("Attribute flushed", logger.Field{Key: "attribute", Value: slot.Name()})
		}
	}
	return badReply, nil
}

func percentOf(s *Slot[protocol.PercentMessage], role protocol.Role) uint8 {
	if msg, ok := s.Static(); ok {
		return msg.Percent()
	}
	if msg, ok := s.Current(); ok {
		return msg.Percent()
	}
	return role.Default()
}
