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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/device"
)

var verboseStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and cooler status",
	Long:  `Displays the daemon status and the latest readings of every attached cooler.`,
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached coolers",
	Args:  cobra.NoArgs,
	Run:   runDevices,
}

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Look for coolers that were missed by hotplug",
	Args:  cobra.NoArgs,
	Run:   runRescan,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(rescanCmd)
	statusCmd.Flags().BoolVarP(&verboseStatus, "verbose", "v", false, "Show detailed status")
}

func runStatus(cmd *cobra.Command, args []string) {
	if err := executeStatus(cmd.OutOrStdout(), defaultClient, verboseStatus); err != nil {
		reportError(cmd, err)
	}
}

func runDevices(cmd *cobra.Command, args []string) {
	if err := executeDevices(cmd.OutOrStdout(), defaultClient); err != nil {
		reportError(cmd, err)
	}
}

func runRescan(cmd *cobra.Command, args []string) {
	if err := executeRescan(cmd.OutOrStdout(), defaultClient); err != nil {
		reportError(cmd, err)
	}
}

func fetchDevices(client ClientInterface) ([]device.Info, error) {
	resp, err := request(client, daemon.Request{Command: daemon.CmdDevices})
	if err != nil {
		return nil, err
	}
	var infos []device.Info
	if err := decodeData(resp, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func executeStatus(w io.Writer, client ClientInterface, verbose bool) error {
	resp, err := request(client, daemon.Request{Command: daemon.CmdStatus})
	if err != nil {
		return err
	}
	var st daemon.Status
	if err := decodeData(resp, &st); err != nil {
		return err
	}
	infos, err := fetchDevices(client)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Kraken Cooler Daemon")
	fmt.Fprintln(w, "====================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "[OK] Daemon:     Running (PID: %d)\n", st.PID)
	if st.Uptime != "" {
		fmt.Fprintf(w, "  Uptime:       %s\n", st.Uptime)
	}
	if verbose {
		fmt.Fprintf(w, "  Socket:       %s\n", st.Socket)
		fmt.Fprintf(w, "  Interval:     %s\n", formatInterval(st.UpdateInterval))
		fmt.Fprintf(w, "  History:      %s\n", boolToStatus(st.History))
		if st.API != "" {
			fmt.Fprintf(w, "  HTTP API:     %s\n", st.API)
		}
		if len(st.Plugins) > 0 {
			fmt.Fprintf(w, "  Plugins:      %s\n", strings.Join(st.Plugins, ", "))
		}
	}
	fmt.Fprintln(w)

	if len(infos) == 0 {
		fmt.Fprintln(w, "[WARN] No coolers attached")
		return nil
	}

	for _, info := range infos {
		marker := "[OK]"
		if info.StatusFailed {
			marker = "[WARN]"
		}
		fmt.Fprintf(w, "%s %s (serial %s)\n", marker, info.ID, orDash(info.Serial))
		fmt.Fprintf(w, "    Liquid:     %d °C\n", info.Status.TempLiquid)
		fmt.Fprintf(w, "    Fan:        %d rpm (%d%%)\n", info.Status.FanRPM, info.FanPercent)
		fmt.Fprintf(w, "    Pump:       %d rpm (%d%%)\n", info.Status.PumpRPM, info.PumpPercent)
		if verbose {
			fmt.Fprintf(w, "    Updates:    %s, every %s\n", info.State, formatInterval(info.IntervalMS))
			if !info.Updated.IsZero() {
				fmt.Fprintf(w, "    Last read:  %s\n", info.Updated.Local().Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintf(w, "    Status:     %s\n", boolToYesNo(!info.StatusFailed))
			fmt.Fprintf(w, "    Failures:   %d\n", info.Failures)
		}
	}

	if !verbose {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Use 'kraken status -v' for detailed information")
	}
	return nil
}

func executeDevices(w io.Writer, client ClientInterface) error {
	infos, err := fetchDevices(client)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(w, "No coolers attached")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tSERIAL\tSTATE\tINTERVAL")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, orDash(info.Serial), info.State, formatInterval(info.IntervalMS))
	}
	return tw.Flush()
}

func executeRescan(w io.Writer, client ClientInterface) error {
	resp, err := request(client, daemon.Request{Command: daemon.CmdRescan})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "[OK] %s\n", resp.Message)
	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Active"
	}
	return "Inactive"
}

func boolToYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// formatInterval renders an update interval in milliseconds.
func formatInterval(ms int64) string {
	if ms <= 0 {
		return "halted"
	}
	if ms%1000 == 0 {
		return fmt.Sprintf("%ds", ms/1000)
	}
	return fmt.Sprintf("%dms", ms)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
