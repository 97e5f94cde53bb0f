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
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List loaded sensor plugins",
	Long: `Lists the sensor plugins the daemon loaded and the sensors each provides.

Curves read plugin sensors with "plugin <name> <sensor> <max>".`,
	Args: cobra.NoArgs,
	Run:  runPlugins,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) {
	if err := executePlugins(cmd.OutOrStdout(), defaultClient); err != nil {
		reportError(cmd, err)
	}
}

func executePlugins(w io.Writer, client ClientInterface) error {
	resp, err := request(client, daemon.Request{Command: daemon.CmdPlugins})
	if err != nil {
		return err
	}
	var loaded []daemon.PluginInfo
	if err := decodeData(resp, &loaded); err != nil {
		return err
	}
	if len(loaded) == 0 {
		fmt.Fprintln(w, "No plugins loaded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLUGIN\tVERSION\tSENSORS")
	for _, p := range loaded {
		keys := make([]string, len(p.Sensors))
		for i, sensor := range p.Sensors {
			keys[i] = sensor.Key
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Metadata.Version, strings.Join(keys, ", "))
	}
	return tw.Flush()
}
