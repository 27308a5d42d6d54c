// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/internal/config"
	"github.com/Thermoquad/meridian/internal/logging"
)

var (
	configPath string

	// Populated by PersistentPreRunE for every subcommand
	cfg       *config.Config
	logger    = zap.NewNop()
	sessionID string
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Star Neto GNSS/INS Sentence Analyzer",
	Long: `Meridian - A CLI tool for monitoring and analyzing the sentence stream of
Star Neto GNSS/INS receivers.

Decodes GPFPD, GTIMU, GPHPD and GPGGA sentences, passes GPRMC, GPCHC and
unknown sentences through verbatim, and talks to the receiver with $cmd
commands.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  Replay:    --file capture.nmea (use - for stdin)

Settings may also come from a config file (--config) or MERIDIAN_* environment
variables, e.g. MERIDIAN_CONNECTION_PORT or MERIDIAN_PARSER_BUFFER_SIZE.

For WebSocket authentication, the password is read from the MERIDIAN_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configPath, "config", "", "Config file (YAML, TOML or JSON)")

	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Replay
	flags.StringP("file", "f", "", "Replay a captured sentence stream from a file")

	// Parser and logging
	flags.Int("buffer-size", 256, "Parser buffer size in bytes")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")
	flags.String("log-file", "", "Also write logs to this file, rotated")
}

// setup loads configuration and builds the session logger
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	base, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	sessionID = logging.NewSessionID()
	logger = logging.WithSession(base, sessionID, cmd.Name())
	logger.Debug("configuration loaded", zap.String("config", configPath))
	return nil
}

// quietLogger returns the session logger with the terminal output dropped,
// for commands whose TUI owns the screen. The log file still receives lines.
func quietLogger(cmd *cobra.Command) *zap.Logger {
	base, err := logging.NewWithWriter(cfg.Logging, io.Discard)
	if err != nil {
		return zap.NewNop()
	}
	return logging.WithSession(base, sessionID, cmd.Name())
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
