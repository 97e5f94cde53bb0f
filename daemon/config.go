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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/we-are-mono/kraken/api"
	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/device"
	"github.com/we-are-mono/kraken/history"
	"github.com/we-are-mono/kraken/validation"
)

// DefaultConfigPath is read when KRAKEN_CONFIG is unset.
const DefaultConfigPath = "/etc/kraken/kraken.yaml"

// Config is the daemon configuration file.
type Config struct {
	// UpdateIntervalMS is the initial tick period of every device. 0 starts
	// devices halted; values below 500 are raised to 500.
	UpdateIntervalMS int64             `yaml:"update_interval_ms"`
	Log              LogConfig         `yaml:"log"`
	History          HistoryConfig     `yaml:"history"`
	API              APIConfig         `yaml:"api"`
	Plugins          PluginsConfig     `yaml:"plugins"`
	Attributes       map[string]string `yaml:"attributes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
	Output string `yaml:"output"` // auto, journald, file or stderr
	File   string `yaml:"file"`
}

type HistoryConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Driver    string        `yaml:"driver"`
	Path      string        `yaml:"path"`
	Every     uint64        `yaml:"every"`
	Retention time.Duration `yaml:"retention"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type PluginsConfig struct {
	Dirs []string `yaml:"dirs"`
	Load []string `yaml:"load"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		UpdateIntervalMS: device.DefaultInterval.Milliseconds(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: logger.OutputAuto,
			File:   logger.DefaultFilePath,
		},
		History: HistoryConfig{
			Enabled:   true,
			Driver:    history.DriverSQLite,
			Path:      "/var/lib/kraken/history.db",
			Every:     10,
			Retention: 7 * 24 * time.Hour,
		},
		API: APIConfig{
			Listen: api.DefaultListen,
		},
		Attributes: map[string]string{},
	}
}

// ConfigPath returns KRAKEN_CONFIG or the default path.
func ConfigPath() string {
	if p := os.Getenv("KRAKEN_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults. The result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and keeps the defaults.
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s:\n%w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Log.Output = strings.ToLower(c.Log.Output)
	c.History.Driver = strings.ToLower(c.History.Driver)
	if c.Attributes == nil {
		c.Attributes = map[string]string{}
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	v := validation.NewCollector()

	v.Check(validation.ValidateRange("update_interval_ms", c.UpdateIntervalMS, 0, int64(time.Hour/time.Millisecond)))

	v.WithContext("log")
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		v.Check(err)
	}
	v.Check(validation.ValidateOneOf("format", c.Log.Format, []string{"json", "text"}))
	v.Check(validation.ValidateOneOf("output", c.Log.Output,
		[]string{logger.OutputAuto, logger.OutputJournald, logger.OutputFile, logger.OutputStderr}))
	if c.Log.Output == logger.OutputFile {
		v.Check(validation.ValidateAbsPath("file", c.Log.File))
	}

	if c.History.Enabled {
		v.WithContext("history")
		v.Check(validation.ValidateOneOf("driver", c.History.Driver, []string{history.DriverSQLite, history.DriverSQLite3}))
		v.Check(validation.ValidateAbsPath("path", c.History.Path))
		v.Check(validation.ValidateNonNegative("retention", c.History.Retention))
	}

	if c.API.Enabled {
		v.WithContext("api")
		v.Check(validation.ValidateListenAddress(c.API.Listen))
	}

	v.WithContext("plugins")
	for _, dir := range c.Plugins.Dirs {
		v.Check(validation.ValidateAbsPath("dir", dir))
	}
	for _, name := range c.Plugins.Load {
		v.Check(validation.ValidateName("plugin name", name))
	}

	v.WithContext("attributes")
	modes := make(map[string]device.Mode)
	for _, a := range device.Attributes() {
		modes[a.Name] = a.Mode
	}
	for _, name := range c.AttributeNames() {
		mode, ok := modes[name]
		switch {
		case !ok:
			v.CheckMsg(device.ErrUnknownAttribute, name)
		case mode != device.ModeWrite && mode != device.ModeReadWrite:
			v.CheckMsg(device.ErrReadOnly, name)
		}
	}

	return v.Error()
}

// AttributeNames returns the configured attribute names in the order they
// are applied: update_interval first, then alphabetical.
func (c *Config) AttributeNames() []string {
	names := make([]string, 0, len(c.Attributes))
	for name := range c.Attributes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == device.AttrUpdateInterval) != (names[j] == device.AttrUpdateInterval) {
			return names[i] == device.AttrUpdateInterval
		}
		return names[i] < names[j]
	})
	return names
}

// UpdateInterval converts UpdateIntervalMS.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMS) * time.Millisecond
}

// LoggerConfig maps the log section onto logger.Config.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:     c.Log.Level,
		Format:    c.Log.Format,
		Outputs:   []string{c.Log.Output},
		FilePath:  c.Log.File,
		Component: "daemon",
	}
}
