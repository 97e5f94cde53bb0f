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

// Package daemon implements the kraken daemon: device management, the unix
// socket server and its JSON line protocol.
package daemon

import (
	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/plugins"
)

// Commands understood by the daemon.
const (
	CmdDevices       = "devices"
	CmdInfo          = "info"
	CmdAttributes    = "attributes"
	CmdGet           = "get"
	CmdSet           = "set"
	CmdWait          = "wait"
	CmdInterval      = "interval"
	CmdStatus        = "status"
	CmdHistory       = "history"
	CmdPlugins       = "plugins"
	CmdRescan        = "rescan"
	CmdLogsSubscribe = "logs-subscribe"
)

// LogFilter defines filtering criteria for log streaming
type LogFilter struct {
	Level     string `json:"level,omitempty"`     // Minimum level (debug, info, warn, error)
	Component string `json:"component,omitempty"` // Only this component
	Device    string `json:"device,omitempty"`    // Only entries about this device
}

// Match reports whether entry passes the filter. A nil filter passes all.
func (f *LogFilter) Match(entry *logger.Entry) bool {
	if f == nil {
		return true
	}
	if f.Level != "" {
		min, err := logger.ParseLevel(f.Level)
		if err == nil {
			level, _ := logger.ParseLevel(entry.Level)
			if level < min {
				return false
			}
		}
	}
	if f.Component != "" && entry.Component != f.Component {
		return false
	}
	if f.Device != "" && entry.Device != f.Device {
		return false
	}
	return true
}

// Request represents a command sent to the daemon
type Request struct {
	Command   string     `json:"command"`
	Device    string     `json:"device,omitempty"`    // empty selects the only attached device
	Attribute string     `json:"attribute,omitempty"` // get, set
	Value     string     `json:"value,omitempty"`     // set, interval
	Limit     int        `json:"limit,omitempty"`     // history
	TimeoutMS int64      `json:"timeout_ms,omitempty"` // get, wait
	LogFilter *LogFilter `json:"log_filter,omitempty"`
}

// Response represents the daemon's response
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Success bool        `json:"success"`
}

// AttributeValue is the Data of get, wait and interval responses.
type AttributeValue struct {
	Device    string `json:"device"`
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// Status is the Data of a status response.
type Status struct {
	PID            int      `json:"pid"`
	Uptime         string   `json:"uptime"`
	Socket         string   `json:"socket"`
	Devices        []string `json:"devices"`
	UpdateInterval int64    `json:"update_interval_ms"`
	History        bool     `json:"history"`
	API            string   `json:"api,omitempty"`
	Plugins        []string `json:"plugins"`
}

// PluginInfo is one element of a plugins response.
type PluginInfo struct {
	Name string `json:"name"`
	plugins.Info
}
