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

// Package plugins loads external sensor providers using Hashicorp's go-plugin
// framework. A provider exposes named readings that dynamic fan, pump and LED
// curves can follow through the "plugin <name> <key> <max>" source.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BinaryPrefix is prepended to a plugin name to form its executable name.
const BinaryPrefix = "kraken-plugin-"

var (
	// ErrNotFound is returned when no plugin binary or sensor matches.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyLoaded is returned when a plugin name is registered twice.
	ErrAlreadyLoaded = errors.New("plugin already loaded")
)

// Metadata describes a sensor provider.
type Metadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Sensor describes one reading a provider offers.
type Sensor struct {
	Key         string `json:"key"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description,omitempty"`
}

// PluginManager finds plugin binaries.
type PluginManager struct {
	pluginDirs []string
}

// NewPluginManager searches ./bin (dev), /usr/lib/kraken/plugins and
// /opt/kraken/plugins, followed by any extra directories.
func NewPluginManager(extraDirs ...string) *PluginManager {
	dirs := []string{
		"./bin",
		"/usr/lib/kraken/plugins",
		"/opt/kraken/plugins",
	}
	return &PluginManager{pluginDirs: append(dirs, extraDirs...)}
}

// Dirs returns the search path in order.
func (pm *PluginManager) Dirs() []string {
	return append([]string(nil), pm.pluginDirs...)
}

// FindPlugin returns the path of the first executable named
// kraken-plugin-<name> on the search path.
func (pm *PluginManager) FindPlugin(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, '/') {
		return "", fmt.Errorf("invalid plugin name %q", name)
	}
	binary := BinaryPrefix + name

	for _, dir := range pm.pluginDirs {
		path := filepath.Join(dir, binary)
		if isExecutable(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("plugin %s: %w", name, ErrNotFound)
}

// ListPlugins returns the sorted names of every plugin on the search path.
func (pm *PluginManager) ListPlugins() []string {
	seen := make(map[string]bool)
	for _, dir := range pm.pluginDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasPrefix(name, BinaryPrefix) {
				continue
			}
			if isExecutable(filepath.Join(dir, name)) {
				seen[strings.TrimPrefix(name, BinaryPrefix)] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}
