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
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is used to verify that client and server are compatible.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "KRAKEN_PLUGIN",
	MagicCookieValue: "sensor",
}

// pluginKey names the single plugin type served over the connection.
const pluginKey = "sensor"

// Provider is implemented by sensor plugins.
type Provider interface {
	// Metadata returns plugin information
	Metadata(ctx context.Context) (Metadata, error)

	// Sensors lists the keys ReadSensor accepts
	Sensors(ctx context.Context) ([]Sensor, error)

	// ReadSensor returns the current reading for key
	ReadSensor(ctx context.Context, key string) (float64, error)
}

// RPCPlugin is the go-plugin Plugin implementation
type RPCPlugin struct {
	plugin.Plugin
	Impl Provider
}

// Server returns the RPC server for this plugin
func (p *RPCPlugin) Server(broker *plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

// Client returns the RPC client for this plugin
func (p *RPCPlugin) Client(broker *plugin.MuxBroker, client *rpc.Client) (interface{}, error) {
	return &RPCClient{client: client}, nil
}

// ============================================================================
// RPC Server Implementation
// ============================================================================

// RPCServer is the RPC server that wraps Provider
type RPCServer struct {
	Impl Provider
}

type MetadataArgs struct{}
type MetadataReply struct {
	Error    string
	Metadata Metadata
}

func (s *RPCServer) Metadata(args *MetadataArgs, reply *MetadataReply) error {
	metadata, err := s.Impl.Metadata(context.Background())
	if err != nil {
		reply.Error = err.Error()
		return nil
	}
	reply.Metadata = metadata
	return nil
}

type SensorsArgs struct{}
type SensorsReply struct {
	Error   string
	Sensors []Sensor
}

func (s *RPCServer) Sensors(args *SensorsArgs, reply *SensorsReply) error {
	sensors, err := s.Impl.Sensors(context.Background())
	if err != nil {
		reply.Error = err.Error()
		return nil
	}
	reply.Sensors = sensors
	return nil
}

type ReadSensorArgs struct {
	Key string
}
type ReadSensorReply struct {
	Error string
	Value float64
}

func (s *RPCServer) ReadSensor(args *ReadSensorArgs, reply *ReadSensorReply) error {
	value, err := s.Impl.ReadSensor(context.Background(), args.Key)
	if err != nil {
		reply.Error = err.Error()
		return nil
	}
	reply.Value = value
	return nil
}

// ============================================================================
// RPC Client Implementation
// ============================================================================

// RPCClient is the RPC client that implements Provider
type RPCClient struct {
	client *rpc.Client
}

// call runs an RPC and gives up when ctx ends. The call itself keeps running
// until the plugin answers.
func (c *RPCClient) call(ctx context.Context, method string, args, reply interface{}) error {
	done := c.client.Go("Plugin."+method, args, reply, make(chan *rpc.Call, 1)).Done
	select {
	case call := <-done:
		return call.Error
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *RPCClient) Metadata(ctx context.Context) (Metadata, error) {
	var reply MetadataReply
	if err := c.call(ctx, "Metadata", &MetadataArgs{}, &reply); err != nil {
		return Metadata{}, err
	}
	if reply.Error != "" {
		return Metadata{}, ErrFromString(reply.Error)
	}
	return reply.Metadata, nil
}

func (c *RPCClient) Sensors(ctx context.Context) ([]Sensor, error) {
	var reply SensorsReply
	if err := c.call(ctx, "Sensors", &SensorsArgs{}, &reply); err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, ErrFromString(reply.Error)
	}
	return reply.Sensors, nil
}

func (c *RPCClient) ReadSensor(ctx context.Context, key string) (float64, error) {
	var reply ReadSensorReply
	if err := c.call(ctx, "ReadSensor", &ReadSensorArgs{Key: key}, &reply); err != nil {
		return 0, err
	}
	if reply.Error != "" {
		return 0, ErrFromString(reply.Error)
	}
	return reply.Value, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

// ErrFromString creates an error from a string
func ErrFromString(s string) error {
	if s == "" {
		return nil
	}
	return &rpcError{msg: s}
}

type rpcError struct {
	msg string
}

func (e *rpcError) Error() string {
	return e.msg
}

// ServePlugin serves impl to the daemon over net/rpc
func ServePlugin(impl Provider) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginKey: &RPCPlugin{Impl: impl},
		},
	})
}
