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

package logger

import (
	"fmt"
)

// Output names accepted in Config.Outputs.
const (
	OutputAuto     = "auto"
	OutputJournald = "journald"
	OutputFile     = "file"
	OutputStderr   = "stderr"
)

// ValidOutput reports whether name is a known output.
func ValidOutput(name string) bool {
	switch name {
	case OutputAuto, OutputJournald, OutputFile, OutputStderr:
		return true
	}
	return false
}

// Backends opens the outputs named in cfg. "auto" picks journald when
// systemd-cat exists and stderr otherwise. No outputs means auto.
func Backends(cfg Config) ([]Backend, error) {
	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{OutputAuto}
	}

	var backends []Backend
	closeAll := func() {
		for _, b := range backends {
			b.Close()
		}
	}

	for _, out := range outputs {
		if out == OutputAuto {
			if JournaldAvailable() {
				out = OutputJournald
			} else {
				out = OutputStderr
			}
		}

		switch out {
		case OutputJournald:
			b, err := NewJournaldBackend(cfg.Format)
			if err != nil {
				closeAll()
				return nil, err
			}
			backends = append(backends, b)
		case OutputFile:
			b, err := NewFileBackend(cfg.FilePath, cfg.Format)
			if err != nil {
				closeAll()
				return nil, err
			}
			backends = append(backends, b)
		case OutputStderr:
			backends = append(backends, NewStderrBackend(cfg.Format))
		default:
			closeAll()
			return nil, fmt.Errorf("unknown log output %q", out)
		}
	}
	return backends, nil
}

// Setup opens the configured backends and installs the global logger with a
// fresh emitter. The returned function closes the backends.
func Setup(cfg Config) (Logger, *Emitter, func(), error) {
	if _, err := ParseLevel(cfg.Level); err != nil {
		return nil, nil, nil, err
	}
	backends, err := Backends(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	emitter := NewEmitter()
	Init(cfg, backends, emitter)
	closer := func() {
		for _, b := range backends {
			b.Close()
		}
	}
	return std, emitter, closer, nil
}
