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

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/kraken/daemon"
)

var setCmd = &cobra.Command{
	Use:   "set <attribute> <value...>",
	Short: "Write a cooler attribute",
	Long: `Writes one attribute of a cooler. Everything after the attribute name
is the value, so LED effects and curves need no quoting.

Examples:
  kraken set fan_percent 60
  kraken set pump_percent dynamic temp_liquid 0:60 30:60 45:100
  kraken set led_logo fixed color 0000ff
  kraken set led_ring marquee direction backward group_size 5 colors f00 0f0 00f fff 000 f00 0f0 00f
  kraken set led_sync off
  kraken set update_interval 2000`,
	Run: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) {
	if err := executeSet(cmd.OutOrStdout(), defaultClient, deviceID, args); err != nil {
		reportError(cmd, err)
	}
}

// parseSetArgs splits the arguments into the attribute name and its value.
func parseSetArgs(args []string) (string, string, error) {
	if len(args) < 2 {
		return "", "", fmt.Errorf("requires an attribute and a value")
	}
	return args[0], strings.Join(args[1:], " "), nil
}

// executeSet executes the set command with the given client and arguments.
func executeSet(w io.Writer, client ClientInterface, id string, args []string) error {
	name, value, err := parseSetArgs(args)
	if err != nil {
		return err
	}

	resp, err := request(client, daemon.Request{
		Command:   daemon.CmdSet,
		Device:    id,
		Attribute: name,
		Value:     value,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, resp.Message)
	return nil
}
