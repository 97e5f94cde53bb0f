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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/kraken/client"
	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/daemon/logger"
)

var (
	logsFollow    bool
	logsLines     int
	logsSince     string
	logsFile      string
	logsComponent string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Kraken daemon logs",
	Long:  `Display logs from the Kraken daemon using journalctl (systemd) or tail (non-systemd).`,
	Run:   runLogs,
}

var logsWatchCmd = &cobra.Command{
	Use:   "watch [level]",
	Short: "Watch logs in real-time from the Kraken daemon",
	Long: `Stream logs from the Kraken daemon in real-time. Optionally filter by
minimum level (debug, info, warn, error), component, or device (--device).`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogsWatch,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsWatchCmd)
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output in real-time")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since time (e.g., '1 hour ago', '2024-01-01')")
	logsCmd.Flags().StringVar(&logsFile, "file", logger.DefaultFilePath, "Log file to read without journalctl")

	logsWatchCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component name")
}

func runLogs(cmd *cobra.Command, args []string) {
	var argv []string
	if _, err := exec.LookPath("journalctl"); err == nil {
		argv = journalctlArgs(logsFollow, logsLines, logsSince)
	} else {
		if _, err := os.Stat(logsFile); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "[ERROR] Log file not found: %s\n", logsFile)
			fmt.Fprintf(os.Stderr, "[INFO] Make sure the kraken daemon logs to a file (log.output: file).\n")
			os.Exit(1)
		}
		if logsSince != "" {
			fmt.Fprintf(os.Stderr, "[WARN] --since flag is not supported without journalctl, ignoring\n")
		}
		argv = tailArgs(logsFollow, logsLines, logsFile)
	}

	execCmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // argv is built from fixed programs and parsed flags
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin

	if err := execCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to run %s: %v\n", argv[0], err)
		os.Exit(1)
	}
}

func journalctlArgs(follow bool, lines int, since string) []string {
	argv := []string{"journalctl", "-t", "kraken"}
	if follow {
		argv = append(argv, "-f")
	}
	if lines > 0 && !follow {
		argv = append(argv, "-n", fmt.Sprintf("%d", lines))
	}
	if since != "" {
		argv = append(argv, "--since", since)
	}
	// Paging would swallow the output of a one-shot query.
	if !follow {
		argv = append(argv, "--no-pager")
	}
	return argv
}

func tailArgs(follow bool, lines int, file string) []string {
	argv := []string{"tail"}
	if follow {
		argv = append(argv, "-f")
	}
	if lines > 0 {
		argv = append(argv, "-n", fmt.Sprintf("%d", lines))
	}
	return append(argv, file)
}

func runLogsWatch(cmd *cobra.Command, args []string) {
	filter := &daemon.LogFilter{
		Component: logsComponent,
		Device:    deviceID,
	}
	if len(args) > 0 {
		if _, err := logger.ParseLevel(args[0]); err != nil {
			reportError(cmd, err)
			return
		}
		filter.Level = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	err := client.Stream(ctx, filter, func(entry logger.Entry) error {
		printEntry(w, entry)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "\nStopping log stream...")
		return
	}
	if err != nil {
		reportError(cmd, err)
	}
}

// printEntry formats a streamed entry on one line, fields sorted by key.
func printEntry(w io.Writer, entry logger.Entry) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", entry.Timestamp, entry.Level, entry.Component)
	if entry.Device != "" {
		fmt.Fprintf(&b, " %s", entry.Device)
	}
	fmt.Fprintf(&b, ": %s", entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	fmt.Fprintln(w, b.String())
}
