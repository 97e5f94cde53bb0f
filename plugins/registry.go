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

package plugins

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Info is the registry's view of one loaded plugin.
type Info struct {
	Metadata Metadata `json:"metadata"`
	Sensors  []Sensor `json:"sensors"`
}

type entry struct {
	provider Provider
	closer   io.Closer
	info     Info
}

// Registry holds loaded sensor providers by name. It satisfies
// dynamic.SensorResolver.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*entry)}
}

// Register adds provider under name. closer, if set, is closed on Unregister.
func (r *Registry) Register(ctx context.Context, name string, provider Provider, closer io.Closer) error {
	meta, err := provider.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("plugin %s metadata: %w", name, err)
	}
	sensors, err := provider.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("plugin %s sensors: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrAlreadyLoaded)
	}
	r.plugins[name] = &entry{
		provider: provider,
		closer:   closer,
		info:     Info{Metadata: meta, Sensors: sensors},
	}
	return nil
}

// Load starts the named plugin binary and registers it.
func (r *Registry) Load(ctx context.Context, pm *PluginManager, name string) error {
	if r.HasProvider(name) {
		return fmt.Errorf("%s: %w", name, ErrAlreadyLoaded)
	}
	path, err := pm.FindPlugin(name)
	if err != nil {
		return err
	}
	client, err := NewPluginClient(path)
	if err != nil {
		return err
	}
	provider, err := client.Dispense()
	if err != nil {
		client.Close()
		return err
	}
	if err := r.Register(ctx, name, provider, client); err != nil {
		client.Close()
		return err
	}
	return nil
}

// HasProvider reports whether a plugin is registered under name.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[name]
	return ok
}

// ReadSensor reads key from the named provider.
func (r *Registry) ReadSensor(ctx context.Context, provider, key string) (float64, error) {
	r.mu.RLock()
	e, ok := r.plugins[provider]
	r.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("plugin %s: %w", provider, ErrNotFound)
	}
	return e.provider.ReadSensor(ctx, key)
}

// Get returns what is known about a loaded plugin.
func (r *Registry) Get(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.plugins[name]
	if !ok {
		return Info{}, false
	}
	return e.info, true
}

// List returns the registered plugin names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a plugin and closes it.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	e, ok := r.plugins[name]
	delete(r.plugins, name)
	r.mu.Unlock()

	if ok && e.closer != nil {
		e.closer.Close()
	}
}

// CloseAll unregisters every plugin.
func (r *Registry) CloseAll() {
	for _, name := range r.List() {
		r.Unregister(name)
	}
}
