// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/internal/logging"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded sentences in human-readable format",
	Long: `Continuously decode and display sentences as they arrive.

Each sentence is shown with timestamp, sentence type, checksum and its decoded
fields. Sentences failing the checksum are skipped silently; sentences with
malformed fields are reported as errors.

Output formats (--format):
  text  Human-readable blocks (default)
  yaml  One YAML document per sentence
  cbor  A CBOR sequence of [head, checksum, fields] records

Supports serial, WebSocket and file connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().String("format", formatText, "Output format (text, yaml or cbor)")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg.Connection)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected", zap.String("connection", connInfo))

	out := newOutputWriter(cfg.Output.Format, os.Stdout)
	defer out.close()

	if cfg.Output.Format == formatText {
		printBanner("Raw Sentence Log", connInfo)
	}

	throttle := logging.NewThrottle(logger, cfg.Monitor.DecodeLogRate, cfg.Monitor.DecodeLogBurst)
	reader := newSentenceReader(conn, cfg.Parser.BufferSize, logger)

	var writeErr error
	err = reader.run(cmd.Context(), func(ev sentenceEvent) bool {
		if ev.decodeErr != nil {
			throttle.Warn("decode error", zap.Error(ev.decodeErr))
		}
		if writeErr = out.write(ev); writeErr != nil {
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("write output: %w", writeErr)
	}
	return err
}
