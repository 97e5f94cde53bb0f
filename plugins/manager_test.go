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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewPluginManager tests PluginManager creation
func TestNewPluginManager(t *testing.T) {
	pm := NewPluginManager("/srv/kraken/plugins")

	require.NotNil(t, pm)
	assert.Equal(t, []string{
		"./bin",
		"/usr/lib/kraken/plugins",
		"/opt/kraken/plugins",
		"/srv/kraken/plugins",
	}, pm.Dirs())
}

// TestPluginManager_FindPlugin tests plugin discovery
func TestPluginManager_FindPlugin(t *testing.T) {
	tmpDir := t.TempDir()
	pm := &PluginManager{pluginDirs: []string{tmpDir}}

	tests := []struct {
		name           string
		pluginName     string
		createPlugin   bool
		makeExecutable bool
		expectError    bool
		errorMsg       string
	}{
		{
			name:           "plugin exists and is executable",
			pluginName:     "hostsensors",
			createPlugin:   true,
			makeExecutable: true,
		},
		{
			name:        "plugin does not exist",
			pluginName:  "nonexistent",
			expectError: true,
			errorMsg:    "not found",
		},
		{
			name:         "plugin exists but not executable",
			pluginName:   "notexec",
			createPlugin: true,
			expectError:  true,
			errorMsg:     "not found",
		},
		{
			name:        "path separators rejected",
			pluginName:  "../evil",
			expectError: true,
			errorMsg:    "invalid plugin name",
		},
		{
			name:        "empty name rejected",
			pluginName:  "",
			expectError: true,
			errorMsg:    "invalid plugin name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.createPlugin {
				pluginPath := filepath.Join(tmpDir, BinaryPrefix+tt.pluginName)
				require.NoError(t, os.WriteFile(pluginPath, []byte("#!/bin/sh\necho test"), 0644))
				if tt.makeExecutable {
					require.NoError(t, os.Chmod(pluginPath, 0755))
				}
			}

			path, err := pm.FindPlugin(tt.pluginName)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(tmpDir, BinaryPrefix+tt.pluginName), path)
		})
	}
}

// TestPluginManager_FindPlugin_FirstMatchWins tests that earlier directories take precedence
func TestPluginManager_FindPlugin_FirstMatchWins(t *testing.T) {
	tmpDir1 := t.TempDir()
	tmpDir2 := t.TempDir()
	pm := &PluginManager{pluginDirs: []string{tmpDir1, tmpDir2}}

	plugin1 := filepath.Join(tmpDir1, BinaryPrefix+"dup")
	plugin2 := filepath.Join(tmpDir2, BinaryPrefix+"dup")
	require.NoError(t, os.WriteFile(plugin1, []byte("#!/bin/sh\necho one"), 0755))
	require.NoError(t, os.WriteFile(plugin2, []byte("#!/bin/sh\necho two"), 0755))

	found, err := pm.FindPlugin("dup")
	require.NoError(t, err)
	assert.Equal(t, plugin1, found)

	// Only in the second directory.
	only := filepath.Join(tmpDir2, BinaryPrefix+"second")
	require.NoError(t, os.WriteFile(only, []byte("#!/bin/sh"), 0755))
	found, err = pm.FindPlugin("second")
	require.NoError(t, err)
	assert.Equal(t, only, found)
}

// TestPluginManager_ListPlugins tests listing across directories
func TestPluginManager_ListPlugins(t *testing.T) {
	tmpDir1 := t.TempDir()
	tmpDir2 := t.TempDir()
	pm := &PluginManager{pluginDirs: []string{tmpDir1, tmpDir2, filepath.Join(tmpDir1, "missing")}}

	files := map[string]os.FileMode{
		filepath.Join(tmpDir1, BinaryPrefix+"zeta"):        0755,
		filepath.Join(tmpDir1, BinaryPrefix+"alpha"):       0755,
		filepath.Join(tmpDir2, BinaryPrefix+"alpha"):       0755,
		filepath.Join(tmpDir2, BinaryPrefix+"noexec"):      0644,
		filepath.Join(tmpDir2, "some-other-binary"):        0755,
		filepath.Join(tmpDir2, BinaryPrefix+"hostsensors"): 0755,
	}
	for path, mode := range files {
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh"), mode))
		require.NoError(t, os.Chmod(path, mode))
	}
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir1, BinaryPrefix+"dir"), 0755))

	assert.Equal(t, []string{"alpha", "hostsensors", "zeta"}, pm.ListPlugins())
}
