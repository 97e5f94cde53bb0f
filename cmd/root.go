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

// Package cmd implements the kraken CLI using cobra: the daemon itself and
// the commands that talk to it over the control socket.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the application version string.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// deviceID selects the cooler for commands that address one. Empty means
// the only attached device.
var deviceID string

var rootCmd = &cobra.Command{
	Use:   "kraken",
	Short: "Kraken - NZXT Kraken X62 cooler daemon",
	Long: `Kraken drives NZXT Kraken X62 liquid coolers over USB.

The daemon polls each cooler, keeps fan and pump speeds and LED effects
programmed, and serves a control socket for this CLI.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("Kraken v%s (built: %s)\n", Version, BuildTime))
	rootCmd.PersistentFlags().StringVarP(&deviceID, "device", "d", "", "Device id (e.g. 1-4); defaults to the only attached cooler")
}

// Execute runs the root command and handles any errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion updates the version and build time for display in help and version output.
func SetVersion(version, buildTime string) {
	Version = version
	BuildTime = buildTime
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("Kraken v%s (built: %s)\n", version, buildTime))
}

// exitWithError is a helper function that exits with code 1.
// It can be overridden in tests to avoid actual exit.
var exitWithError = func() {
	os.Exit(1)
}

// reportError prints err the way every command does and exits.
func reportError(cmd *cobra.Command, err error) {
	cmd.PrintErrln(fmt.Sprintf("[ERROR] %v", err))
	exitWithError()
}
