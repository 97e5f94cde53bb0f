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
	"time"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/kraken/daemon"
)

var waitTimeout time.Duration

var intervalCmd = &cobra.Command{
	Use:   "interval [milliseconds]",
	Short: "Show or change the update interval",
	Long: `Shows the update interval of a cooler, or sets it when a value is given.

0 halts updates. Values below 500 are raised to 500.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runInterval,
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the cooler completes its next update",
	Args:  cobra.NoArgs,
	Run:   runWait,
}

func init() {
	rootCmd.AddCommand(intervalCmd)
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "Give up after this long (default 30s)")
}

func runInterval(cmd *cobra.Command, args []string) {
	if err := executeInterval(cmd.OutOrStdout(), defaultClient, deviceID, args); err != nil {
		reportError(cmd, err)
	}
}

func runWait(cmd *cobra.Command, args []string) {
	if err := executeWait(cmd.OutOrStdout(), defaultClient, deviceID, waitTimeout); err != nil {
		reportError(cmd, err)
	}
}

func executeInterval(w io.Writer, client ClientInterface, id string, args []string) error {
	req := daemon.Request{Command: daemon.CmdInterval, Device: id}
	if len(args) == 1 {
		req.Value = args[0]
	}

	resp, err := request(client, req)
	if err != nil {
		return err
	}
	if req.Value != "" {
		fmt.Fprintln(w, resp.Message)
		return nil
	}

	var v daemon.AttributeValue
	if err := decodeData(resp, &v); err != nil {
		return err
	}
	fmt.Fprintln(w, v.Value)
	return nil
}

func executeWait(w io.Writer, client ClientInterface, id string, timeout time.Duration) error {
	resp, err := request(client, daemon.Request{
		Command:   daemon.CmdWait,
		Device:    id,
		TimeoutMS: timeout.Milliseconds(),
	})
	if err != nil {
		return err
	}

	var v daemon.AttributeValue
	if err := decodeData(resp, &v); err != nil {
		return err
	}
	fmt.Fprintf(w, "[OK] %s updated\n", v.Device)
	return nil
}
