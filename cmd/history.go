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

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/history"
)

var (
	historyField string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [device]",
	Short: "Plot recorded telemetry",
	Long: `Plots the recorded history of one cooler field in the terminal.

Fields: temp_liquid, fan_rpm, pump_rpm, fan_percent, pump_percent.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&historyField, "field", "f", history.FieldTempLiquid, "Field to plot")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 120, "Number of samples")
}

func runHistory(cmd *cobra.Command, args []string) {
	id := deviceID
	if len(args) == 1 {
		id = args[0]
	}
	if err := executeHistory(cmd.OutOrStdout(), defaultClient, id, historyField, historyLimit); err != nil {
		reportError(cmd, err)
	}
}

func executeHistory(w io.Writer, client ClientInterface, id, field string, limit int) error {
	if limit < 1 {
		return fmt.Errorf("limit must be positive")
	}

	resp, err := request(client, daemon.Request{Command: daemon.CmdHistory, Device: id, Limit: limit})
	if err != nil {
		return err
	}
	var samples []history.Sample
	if err := decodeData(resp, &samples); err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(w, "No samples recorded yet")
		return nil
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		v, err := s.Value(field)
		if err != nil {
			return err
		}
		values[i] = v
	}

	first, last := samples[0], samples[len(samples)-1]
	caption := fmt.Sprintf("%s %s, %s to %s", first.Device, field,
		first.Time.Local().Format("15:04:05"), last.Time.Local().Format("15:04:05"))

	fmt.Fprintln(w, asciigraph.Plot(values,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption)))
	return nil
}
