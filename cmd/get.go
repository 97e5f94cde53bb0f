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
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/device"
)

var getTimeout time.Duration

var getCmd = &cobra.Command{
	Use:   "get [attribute]",
	Short: "Read a cooler attribute",
	Long: `Reads one attribute of a cooler.

If no attribute is given, lists every attribute and its access mode.

Examples:
  kraken get                       # List attributes
  kraken get temp_liquid
  kraken get fan_percent
  kraken -d 1-4 get serial_no
  kraken get update_indicator      # Blocks until the next update`,
	Args: cobra.MaximumNArgs(1),
	Run:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().DurationVar(&getTimeout, "timeout", 0, "Give up after this long (default 10s, 30s for update_indicator)")
}

func runGet(cmd *cobra.Command, args []string) {
	if err := executeGet(cmd.OutOrStdout(), defaultClient, deviceID, getTimeout, args); err != nil {
		reportError(cmd, err)
	}
}

// executeGet prints the value of args[0], or the attribute table when no
// attribute is named.
func executeGet(w io.Writer, client ClientInterface, id string, timeout time.Duration, args []string) error {
	if len(args) == 0 {
		return listAttributes(w, client)
	}

	resp, err := request(client, daemon.Request{
		Command:   daemon.CmdGet,
		Device:    id,
		Attribute: args[0],
		TimeoutMS: timeout.Milliseconds(),
	})
	if err != nil {
		return err
	}

	var v daemon.AttributeValue
	if err := decodeData(resp, &v); err != nil {
		return err
	}
	fmt.Fprintln(w, v.Value)
	return nil
}

func listAttributes(w io.Writer, client ClientInterface) error {
	resp, err := request(client, daemon.Request{Command: daemon.CmdAttributes})
	if err != nil {
		return err
	}

	var attrs []device.Attribute
	if err := decodeData(resp, &attrs); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tMODE")
	for _, a := range attrs {
		fmt.Fprintf(tw, "%s\t%s\n", a.Name, a.Mode)
	}
	return tw.Flush()
}
