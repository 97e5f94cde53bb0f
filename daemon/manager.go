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

package daemon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/device"
	"github.com/we-are-mono/kraken/dynamic"
	"github.com/we-are-mono/kraken/usb"
)

// ErrNoDevice is returned when a request names a device that is not attached.
var ErrNoDevice = errors.New("no such device")

// Hotplug add events can arrive before sysfs attributes are readable.
const (
	hotplugRetries    = 5
	hotplugRetryDelay = 200 * time.Millisecond
)

// ManagerOptions wires the manager to the host. Nil functions default to the
// real sysfs, usbfs and netlink implementations.
type ManagerOptions struct {
	Interval   time.Duration
	Attributes map[string]string
	// AttributeOrder is the order Attributes are applied in.
	AttributeOrder []string
	Sources        dynamic.Sources
	Observers      []device.Observer
	Logger         logger.Logger

	Scan  func() ([]usb.Info, error)
	Open  func(info usb.Info) (device.Handle, error)
	Info  func(name string) (usb.Info, error)
	Watch func(ctx context.Context) (<-chan usb.Event, error)

	// OnDetach runs after a device is detached, e.g. to drop history counters.
	OnDetach func(id string)
}

// Manager owns every attached cooler, keyed by sysfs name.
type Manager struct {
	opts ManagerOptions
	log  logger.Logger

	mu sync.RWMutex
	// A nil value reserves an id while its attach is in progress.
	devices map[string]*device.Device
	// removed marks reserved ids that were unplugged before attach finished.
	removed map[string]bool
}

// NewManager fills unset options with the host implementations.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Scan == nil {
		opts.Scan = func() ([]usb.Info, error) { return usb.Scan(usb.SysfsUSBPath) }
	}
	if opts.Open == nil {
		opts.Open = func(info usb.Info) (device.Handle, error) {
			return usb.Open(info.DevfsPath(usb.DevfsUSBPath))
		}
	}
	if opts.Info == nil {
		opts.Info = func(name string) (usb.Info, error) { return usb.ReadInfo(usb.SysfsUSBPath, name) }
	}
	if opts.Watch == nil {
		opts.Watch = usb.Watch
	}
	if opts.AttributeOrder == nil {
		for name := range opts.Attributes {
			opts.AttributeOrder = append(opts.AttributeOrder, name)
		}
		sort.Strings(opts.AttributeOrder)
	}
	return &Manager{
		opts:    opts,
		log:     opts.Logger.With(logger.Field{Key: "component", Value: "manager"}),
		devices: make(map[string]*device.Device),
		removed: make(map[string]bool),
	}
}

// Devices returns the attached devices ordered by id.
func (m *Manager) Devices() []*device.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*device.Device, 0, len(m.devices))
	for _, d := range m.devices {
		if d != nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Device looks up an attached device.
func (m *Manager) Device(id string) (*device.Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := m.devices[id]
	return d, d != nil
}

// Resolve returns the named device. An empty id selects the only attached
// device, and is an error when zero or several are attached.
func (m *Manager) Resolve(id string) (*device.Device, error) {
	if id != "" {
		if d, ok := m.Device(id); ok {
			return d, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoDevice, id)
	}

	devices := m.Devices()
	switch len(devices) {
	case 0:
		return nil, fmt.Errorf("%w: none attached", ErrNoDevice)
	case 1:
		return devices[0], nil
	}
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.ID()
	}
	return nil, fmt.Errorf("several devices attached, pick one of: %v", ids)
}

// Add opens and attaches info unless a device with that name is attached.
func (m *Manager) Add(ctx context.Context, info usb.Info) (*device.Device, error) {
	if d, ok := m.Device(info.Name); ok {
		return d, nil
	}
	h, err := m.opts.Open(info)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Name, err)
	}
	return m.AddHandle(ctx, info.Name, h)
}

// AddHandle attaches an already open handle under id, applies the
// configured attributes and registers the device.
func (m *Manager) AddHandle(ctx context.Context, id string, h device.Handle) (*device.Device, error) {
	m.mu.Lock()
	if _, exists := m.devices[id]; exists {
		m.mu.Unlock()
		h.Close()
		return nil, fmt.Errorf("device %s already attached", id)
	}
	// Reserve the id so a racing hotplug event cannot attach twice.
	m.devices[id] = nil
	m.mu.Unlock()

	d, err := device.Attach(ctx, h, device.Options{
		ID:        id,
		Interval:  m.opts.Interval,
		Sources:   m.opts.Sources,
		Logger:    m.opts.Logger,
		Observers: m.opts.Observers,
	})
	if err != nil {
		m.mu.Lock()
		delete(m.devices, id)
		delete(m.removed, id)
		m.mu.Unlock()
		h.Close()
		return nil, err
	}

	m.applyAttributes(d)

	m.mu.Lock()
	if m.removed[id] {
		delete(m.removed, id)
		delete(m.devices, id)
		m.mu.Unlock()
		d.Detach()
		m.log.Info("Cooler removed while attaching", logger.Field{Key: "device", Value: id})
		return nil, fmt.Errorf("device %s removed while attaching", id)
	}
	m.devices[id] = d
	m.mu.Unlock()

	m.log.Info("Cooler attached",
		logger.Field{Key: "device", Value: id},
		logger.Field{Key: "serial_no", Value: d.Serial()})
	return d, nil
}

// applyAttributes writes the configured values. A bad value is logged and
// skipped so one typo does not keep the cooler offline.
func (m *Manager) applyAttributes(d *device.Device) {
	for _, name := range m.opts.AttributeOrder {
		value, ok := m.opts.Attributes[name]
		if !ok {
			continue
		}
		if err := d.Set(name, value); err != nil {
			m.log.Warn("Failed to apply configured attribute",
				logger.Field{Key: "device", Value: d.ID()},
				logger.Field{Key: "attribute", Value: name},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

// Remove detaches id. Removing an unknown id is not an error. An id still
// being attached is marked, and AddHandle detaches it once attach finishes.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	d, ok := m.devices[id]
	switch {
	case ok && d != nil:
		delete(m.devices, id)
	case ok:
		m.removed[id] = true
	}
	m.mu.Unlock()
	if !ok || d == nil {
		return nil
	}

	err := d.Detach()
	if m.opts.OnDetach != nil {
		m.opts.OnDetach(id)
	}
	m.log.Info("Cooler detached", logger.Field{Key: "device", Value: id})
	return err
}

// Rescan attaches every supported device found in sysfs and returns how many
// were newly attached. Devices that fail to attach are logged and skipped.
func (m *Manager) Rescan(ctx context.Context) (int, error) {
	infos, err := m.opts.Scan()
	if err != nil {
		return 0, fmt.Errorf("scan usb devices: %w", err)
	}

	added := 0
	for _, info := range infos {
		if _, ok := m.Device(info.Name); ok {
			continue
		}
		if _, err := m.Add(ctx, info); err != nil {
			m.log.Error("Failed to attach cooler",
				logger.Field{Key: "device", Value: info.Name},
				logger.Field{Key: "error", Value: err.Error()})
			continue
		}
		added++
	}
	return added, nil
}

// Run scans once and then follows hotplug events until ctx ends. A failed
// hotplug subscription is logged; the scanned devices stay attached.
func (m *Manager) Run(ctx context.Context) {
	if n, err := m.Rescan(ctx); err != nil {
		m.log.Error("Initial scan failed", logger.Field{Key: "error", Value: err.Error()})
	} else {
		m.log.Info("Initial scan complete", logger.Field{Key: "attached", Value: n})
	}

	events, err := m.opts.Watch(ctx)
	if err != nil {
		m.log.Warn("Hotplug monitoring unavailable", logger.Field{Key: "error", Value: err.Error()})
		<-ctx.Done()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ctx, ev)
		}
	}
}

func (m *Manager) handleEvent(ctx context.Context, ev usb.Event) {
	switch ev.Action {
	case usb.ActionRemove:
		m.Remove(ev.Name)
	case usb.ActionAdd:
		if !ev.Supported() {
			return
		}
		info, err := m.readInfo(ctx, ev.Name)
		if err != nil {
			m.log.Error("Failed to read hotplugged device",
				logger.Field{Key: "device", Value: ev.Name},
				logger.Field{Key: "error", Value: err.Error()})
			return
		}
		if _, err := m.Add(ctx, info); err != nil {
			m.log.Error("Failed to attach cooler",
				logger.Field{Key: "device", Value: ev.Name},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

func (m *Manager) readInfo(ctx context.Context, name string) (usb.Info, error) {
	var lastErr error
	for attempt := 0; attempt < hotplugRetries; attempt++ {
		info, err := m.opts.Info(name)
		if err == nil {
			return info, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return usb.Info{}, ctx.Err()
		case <-time.After(hotplugRetryDelay):
		}
	}
	return usb.Info{}, lastErr
}

// Close detaches every device.
func (m *Manager) Close() {
	for _, d := range m.Devices() {
		m.Remove(d.ID())
	}
}
