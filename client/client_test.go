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

package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/daemon/logger"
)

// shortSocketPath keeps the path under the unix socket length limit.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "kc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "k.sock")
	t.Setenv("KRAKEN_SOCKET_PATH", path)
	return path
}

// serve accepts connections on path and hands each decoded request to fn
// together with the connection.
func serve(t *testing.T, path string, fn func(conn net.Conn, req daemon.Request)) {
	t.Helper()
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadBytes('\n')
				if err != nil {
					return
				}
				var req daemon.Request
				if err := json.Unmarshal(line, &req); err != nil {
					return
				}
				fn(conn, req)
			}()
		}
	}()
}

func writeJSON(conn net.Conn, v interface{}) {
	data, _ := json.Marshal(v)
	conn.Write(append(data, '\n'))
}

func TestGetSocketPath(t *testing.T) {
	t.Setenv("KRAKEN_SOCKET_PATH", "")
	assert.Equal(t, daemon.DefaultSocketPath, GetSocketPath())

	t.Setenv("KRAKEN_SOCKET_PATH", "/tmp/custom-kraken.sock")
	assert.Equal(t, "/tmp/custom-kraken.sock", GetSocketPath())
}

func TestSend_Success(t *testing.T) {
	path := shortSocketPath(t)
	serve(t, path, func(conn net.Conn, req daemon.Request) {
		writeJSON(conn, daemon.Response{
			Success: true,
			Data:    daemon.AttributeValue{Device: req.Device, Attribute: req.Attribute, Value: "42"},
		})
	})

	resp, err := Send(daemon.Request{Command: daemon.CmdGet, Device: "1-4", Attribute: "temp_liquid"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "1-4", data["device"])
	assert.Equal(t, "temp_liquid", data["attribute"])
	assert.Equal(t, "42", data["value"])
}

func TestSend_ConnectionFailure(t *testing.T) {
	t.Setenv("KRAKEN_SOCKET_PATH", filepath.Join(t.TempDir(), "missing.sock"))

	resp, err := Send(daemon.Request{Command: daemon.CmdStatus})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "failed to connect to daemon")
}

func TestSend_InvalidJSONResponse(t *testing.T) {
	path := shortSocketPath(t)
	serve(t, path, func(conn net.Conn, req daemon.Request) {
		conn.Write([]byte("not json\n"))
	})

	_, err := Send(daemon.Request{Command: daemon.CmdStatus})
	assert.ErrorContains(t, err, "failed to parse response")
}

func TestSend_ClosedWithoutResponse(t *testing.T) {
	path := shortSocketPath(t)
	serve(t, path, func(conn net.Conn, req daemon.Request) {})

	_, err := Send(daemon.Request{Command: daemon.CmdStatus})
	assert.ErrorContains(t, err, "failed to read response")
}

func TestSendContext_Timeout(t *testing.T) {
	path := shortSocketPath(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	serve(t, path, func(conn net.Conn, req daemon.Request) {
		<-release
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := SendContext(ctx, daemon.Request{Command: daemon.CmdWait})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStream_Entries(t *testing.T) {
	path := shortSocketPath(t)
	got := make(chan daemon.Request, 1)
	serve(t, path, func(conn net.Conn, req daemon.Request) {
		got <- req
		for i := 0; i < 3; i++ {
			writeJSON(conn, logger.NewEntry("info", "device", fmt.Sprintf("tick %d", i),
				map[string]interface{}{"device": "1-4"}))
		}
	})

	var entries []logger.Entry
	stop := errors.New("stop")
	err := Stream(context.Background(), &daemon.LogFilter{Level: "info", Device: "1-4"}, func(e logger.Entry) error {
		entries = append(entries, e)
		if len(entries) == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)

	req := <-got
	assert.Equal(t, daemon.CmdLogsSubscribe, req.Command)
	require.NotNil(t, req.LogFilter)
	assert.Equal(t, "1-4", req.LogFilter.Device)

	require.Len(t, entries, 3)
	assert.Equal(t, "tick 2", entries[2].Message)
	assert.Equal(t, "1-4", entries[0].Device)
}

func TestStream_ErrorResponse(t *testing.T) {
	path := shortSocketPath(t)
	serve(t, path, func(conn net.Conn, req daemon.Request) {
		writeJSON(conn, daemon.Response{Success: false, Error: "log streaming is not available"})
	})

	err := Stream(context.Background(), nil, func(logger.Entry) error { return nil })
	assert.EqualError(t, err, "log streaming is not available")
}

func TestStream_DaemonCloses(t *testing.T) {
	path := shortSocketPath(t)
	serve(t, path, func(conn net.Conn, req daemon.Request) {})

	err := Stream(context.Background(), nil, func(logger.Entry) error { return nil })
	assert.EqualError(t, err, "daemon closed the log stream")
}

func TestStream_Cancel(t *testing.T) {
	path := shortSocketPath(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	serve(t, path, func(conn net.Conn, req daemon.Request) {
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := Stream(ctx, nil, func(logger.Entry) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
