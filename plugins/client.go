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
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// PluginClient wraps a go-plugin client for lifecycle management
type PluginClient struct {
	client    *plugin.Client
	rpcClient plugin.ClientProtocol
}

// debugEnabled reports whether KRAKEN_DEBUG asks for plugin framework logs.
func debugEnabled() bool {
	return os.Getenv("KRAKEN_DEBUG") != ""
}

// NewPluginClient starts the plugin binary at pluginPath and connects to it.
func NewPluginClient(pluginPath string) (*PluginClient, error) {
	// Plugin framework logs are discarded unless KRAKEN_DEBUG is set.
	var output io.Writer = io.Discard
	level := hclog.Error
	if debugEnabled() {
		output = os.Stderr
		level = hclog.Debug
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "plugin",
		Output: output,
		Level:  level,
	})

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginKey: &RPCPlugin{},
		},
		Cmd:    exec.Command(pluginPath),
		Logger: logger,
		AllowedProtocols: []plugin.Protocol{
			plugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}

	logger.Debug("plugin started", "path", pluginPath)

	return &PluginClient{
		client:    client,
		rpcClient: rpcClient,
	}, nil
}

// Dispense returns the plugin's Provider.
func (c *PluginClient) Dispense() (Provider, error) {
	raw, err := c.rpcClient.Dispense(pluginKey)
	if err != nil {
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	provider, ok := raw.(Provider)
	if !ok {
		return nil, fmt.Errorf("dispensed plugin is not a Provider")
	}
	return provider, nil
}

// Exited reports whether the plugin process has gone away.
func (c *PluginClient) Exited() bool {
	return c.client.Exited()
}

// Close terminates the plugin
func (c *PluginClient) Close() error {
	if c.client != nil {
		c.client.Kill()
	}
	return nil
}
