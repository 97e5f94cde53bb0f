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

//go:build integration
// +build integration

// Package integration runs the real daemon against the host: sysfs
// discovery, usbfs and the netlink hotplug monitor. Hardware tests skip
// unless a Kraken X62 is attached and the process may open it.
package integration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/we-are-mono/kraken/client"
	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/usb"
)

// apiListen is the loopback address the harness serves the HTTP API on.
const apiListen = "127.0.0.1:19062"

// syncBuffer collects daemon logs written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestHarness runs one daemon with an isolated socket, database and log.
type TestHarness struct {
	t          *testing.T
	dir        string
	socketPath string
	Config     *daemon.Config
	Logs       *syncBuffer

	server *daemon.Server
	done   chan error
}

// NewTestHarness prepares a configuration rooted in a temporary directory.
// Callers may adjust Config before StartDaemon.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	// Unix socket paths are short; t.TempDir can exceed the limit.
	dir, err := os.MkdirTemp("", "kraken-it")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	socketPath := filepath.Join(dir, "kraken.sock")
	t.Setenv("KRAKEN_SOCKET_PATH", socketPath)

	cfg := daemon.Default()
	cfg.Log.Level = "debug"
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.History.Every = 1
	cfg.API.Enabled = true
	cfg.API.Listen = apiListen

	h := &TestHarness{
		t:          t,
		dir:        dir,
		socketPath: socketPath,
		Config:     cfg,
		Logs:       &syncBuffer{},
	}
	t.Cleanup(h.Cleanup)
	t.Logf("Created test harness: socket=%s", socketPath)
	return h
}

// RequireCooler skips the test unless a Kraken X62 is visible in sysfs and
// its usbfs node can be opened.
func (h *TestHarness) RequireCooler() usb.Info {
	h.t.Helper()

	infos, err := usb.Scan(usb.SysfsUSBPath)
	if err != nil || len(infos) == 0 {
		h.t.Skip("No Kraken X62 attached")
	}
	conn, err := usb.Open(infos[0].DevfsPath(usb.DevfsUSBPath))
	if err != nil {
		h.t.Skipf("Cannot open %s: %v", infos[0].Name, err)
	}
	conn.Close()
	return infos[0]
}

// StartDaemon validates Config, starts the daemon and waits until the
// socket answers.
func (h *TestHarness) StartDaemon() {
	h.t.Helper()

	if err := h.Config.Validate(); err != nil {
		h.t.Fatalf("Invalid test config: %v", err)
	}

	emitter := logger.NewEmitter()
	log := logger.New(h.Config.LoggerConfig(),
		[]logger.Backend{logger.NewWriterBackend(h.Logs, "json")}, emitter)

	srv, err := daemon.NewServer(h.Config, log, emitter)
	if err != nil {
		h.t.Fatalf("Failed to create daemon server: %v", err)
	}
	h.server = srv
	h.done = make(chan error, 1)
	go func() { h.done <- srv.Start() }()

	h.WaitForDaemon(5 * time.Second)
}

// WaitForDaemon waits for daemon to be ready to accept connections
func (h *TestHarness) WaitForDaemon(timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := client.Send(daemon.Request{Command: daemon.CmdStatus}); err == nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	h.t.Fatal("Daemon did not become ready within timeout")
}

// WaitForDevices polls until n devices are attached.
func (h *TestHarness) WaitForDevices(n int, timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(h.server.Manager().Devices()) == n {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	h.t.Fatalf("Expected %d attached devices, have %d", n, len(h.server.Manager().Devices()))
}

// SendRequest sends a request to the daemon and returns the response
func (h *TestHarness) SendRequest(req daemon.Request) (*daemon.Response, error) {
	return client.Send(req)
}

// MustSucceed sends req and fails the test unless the daemon accepts it.
func (h *TestHarness) MustSucceed(req daemon.Request) *daemon.Response {
	h.t.Helper()
	resp, err := client.Send(req)
	if err != nil {
		h.t.Fatalf("%s: %v", req.Command, err)
	}
	if !resp.Success {
		h.t.Fatalf("%s: %s", req.Command, resp.Error)
	}
	return resp
}

// StopDaemon stops the daemon and waits for Start to return.
func (h *TestHarness) StopDaemon() error {
	if h.server == nil {
		return nil
	}
	if err := h.server.Stop(); err != nil {
		return err
	}
	select {
	case err := <-h.done:
		return err
	case <-time.After(10 * time.Second):
		return fmt.Errorf("daemon did not stop")
	}
}

// Cleanup tears down the test environment
func (h *TestHarness) Cleanup() {
	if err := h.StopDaemon(); err != nil {
		h.t.Errorf("Stop daemon: %v", err)
	}
	h.server = nil
	if h.t.Failed() {
		h.t.Logf("Daemon log:\n%s", h.Logs.String())
	}
	os.RemoveAll(h.dir)
}
