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

// Package client talks to the kraken daemon over its unix socket.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/daemon/logger"
)

// GetSocketPath returns the socket path, preferring KRAKEN_SOCKET_PATH env var
func GetSocketPath() string {
	return daemon.GetSocketPath()
}

func dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", GetSocketPath())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon (is it running?): %w", err)
	}
	return conn, nil
}

func writeRequest(conn net.Conn, req daemon.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err = conn.Write(data); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

// Send issues one request and waits for the response without a deadline.
func Send(req daemon.Request) (*daemon.Response, error) {
	return SendContext(context.Background(), req)
}

// SendContext issues one request; ctx bounds the whole exchange.
func SendContext(ctx context.Context, req daemon.Request) (*daemon.Response, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := writeRequest(conn, req); err != nil {
		return nil, err
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp daemon.Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// streamLine is either a log entry or an error response.
type streamLine struct {
	logger.Entry
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// Stream subscribes to the daemon log and calls fn for every entry until
// ctx ends, fn fails or the daemon goes away. Cancelling ctx returns
// ctx.Err().
func Stream(ctx context.Context, filter *daemon.LogFilter, fn func(entry logger.Entry) error) error {
	conn, err := dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := writeRequest(conn, daemon.Request{Command: daemon.CmdLogsSubscribe, LogFilter: filter}); err != nil {
		return err
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line streamLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return fmt.Errorf("failed to parse log entry: %w", err)
		}
		if line.Success != nil && !*line.Success {
			return errors.New(line.Error)
		}
		if err := fn(line.Entry); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("log stream: %w", err)
	}
	return errors.New("daemon closed the log stream")
}
