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

// kraken-plugin-hostsensors exposes host sensors as a kraken curve source.
// It runs as a separate process and communicates with kraken via RPC.
package main

import (
	"log"
	"os"

	kplugin "github.com/we-are-mono/kraken/plugins"
)

func main() {
	// Set up logging to stderr (stdout is used for RPC)
	log.SetOutput(os.Stderr)
	log.SetPrefix("[kraken-plugin-hostsensors] ")

	log.Println("Starting host sensors plugin...")

	kplugin.ServePlugin(NewHostSensorsProvider())
}
