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
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/kraken/daemon"
	"github.com/we-are-mono/kraken/daemon/logger"
)

// DefaultPIDFile is used when KRAKEN_PID_FILE is unset.
const DefaultPIDFile = "/var/run/kraken.pid"

var configPath string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run Kraken as a daemon",
	Long: `Starts the Kraken daemon. It attaches every connected Kraken X62, follows
USB hotplug, and listens for commands on a Unix socket.`,
	Run: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default $KRAKEN_CONFIG or "+daemon.DefaultConfigPath+")")
}

func pidFilePath() string {
	if p := os.Getenv("KRAKEN_PID_FILE"); p != "" {
		return p
	}
	return DefaultPIDFile
}

func runDaemon(cmd *cobra.Command, args []string) {
	path := configPath
	if path == "" {
		path = daemon.ConfigPath()
	}
	cfg, err := daemon.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	if os.Getenv("KRAKEN_DEBUG") != "" {
		cfg.Log.Level = "debug"
	}

	// Check for existing daemon via PID file
	pidFile := pidFilePath()
	if err := checkExistingDaemon(pidFile); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	if err := writePIDFile(pidFile); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to write PID file: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(pidFile)

	log, emitter, closeLog, err := logger.Setup(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to initialize logger: %v\n", err)
		os.Remove(pidFile)
		os.Exit(1)
	}
	defer closeLog()

	log.Info("Logging initialized",
		logger.Field{Key: "output", Value: cfg.Log.Output},
		logger.Field{Key: "format", Value: cfg.Log.Format},
		logger.Field{Key: "config", Value: path})

	server, err := daemon.NewServer(cfg, log, emitter)
	if err != nil {
		log.Error("Failed to create server", logger.Field{Key: "error", Value: err.Error()})
		closeLog()
		os.Remove(pidFile)
		os.Exit(1)
	}

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Shutting down...", logger.Field{Key: "signal", Value: sig.String()})
		if err := server.Stop(); err != nil {
			log.Error("Failed to stop server", logger.Field{Key: "error", Value: err.Error()})
		}
	}()

	if err := server.Start(); err != nil {
		log.Error("Server failed", logger.Field{Key: "error", Value: err.Error()})
		server.Stop()
		closeLog()
		os.Remove(pidFile)
		os.Exit(1)
	}
	// Start returns once Stop closed the socket; finish the shutdown.
	server.Stop()
}

// checkExistingDaemon checks if another daemon is already running
func checkExistingDaemon(pidFile string) error {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("PID file exists but cannot be read: %w (remove %s manually if daemon is not running)", err, pidFile)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return fmt.Errorf("invalid PID in %s: %s (remove file manually if daemon is not running)", pidFile, pidStr)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(pidFile)
		return nil
	}

	// Signal 0 probes for existence without touching the process.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		os.Remove(pidFile)
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d (stop it first or remove %s if it's stale)", pid, pidFile)
}

// writePIDFile writes the current process PID to a file
func writePIDFile(pidFile string) error {
	return os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0600)
}
