// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

var (
	sentenceTestTimeout int
)

var sentenceTestCmd = &cobra.Command{
	Use:   "sentence_test",
	Short: "Test connection by waiting for a valid sentence",
	Long: `Wait for a valid sentence on the connection until timeout.

This command connects to a serial port, WebSocket or capture file and waits
for any sentence that passes its checksum and decodes cleanly. Bytes outside
of sentences and frames failing the checksum are ignored.

Exit codes:
  0 - Sentence received before timeout
  1 - Timeout reached (or source ended) without a valid sentence
  2 - Connection error

Useful for testing connectivity to the receiver or a WebSocket bridge.`,
	RunE: runSentenceTest,
}

func init() {
	rootCmd.AddCommand(sentenceTestCmd)
	sentenceTestCmd.Flags().IntVar(&sentenceTestTimeout, "timeout", 10, "Timeout in seconds to wait for a sentence")
}

func runSentenceTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg.Connection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Meridian - Sentence Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", sentenceTestTimeout)
	fmt.Printf("Waiting for valid sentence...\n\n")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(sentenceTestTimeout)*time.Second)
	defer cancel()

	reader := newSentenceReader(conn, cfg.Parser.BufferSize, logger)
	var received *sentenceEvent
	err = reader.run(ctx, func(ev sentenceEvent) bool {
		if ev.sentence == nil {
			return true
		}
		received = &ev
		return false
	})

	stats := reader.parser.Stats()
	switch {
	case received != nil:
		if stats.SkippedBytes > 0 || stats.ChecksumErrors > 0 {
			fmt.Printf("(skipped %d invalid bytes and %d bad checksums before sync)\n", stats.SkippedBytes, stats.ChecksumErrors)
		}
		printSentenceSummary(received.sentence)
		os.Exit(0)

	case err != nil:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		logger.Warn("no sentence before timeout", zap.Int("timeout_s", sentenceTestTimeout))
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid sentence received within %d seconds\n", sentenceTestTimeout)
		os.Exit(1)

	case ctx.Err() != nil:
		fmt.Fprintf(os.Stderr, "INTERRUPTED: No valid sentence received\n")
		os.Exit(1)

	default:
		fmt.Fprintf(os.Stderr, "FAILED: Source ended without a valid sentence\n")
		os.Exit(1)
	}

	return nil
}

func printSentenceSummary(s *starneto.Sentence) {
	head := s.Message.Head()
	fmt.Printf("SUCCESS: Received valid sentence\n")
	fmt.Printf("  Type: %s (%s)\n", starneto.FormatHead(head), head)
	fmt.Printf("  Checksum: 0x%02X\n", s.Checksum)
	if wire, err := starneto.EncodeSentence(s); err == nil {
		fmt.Printf("  Length: %d bytes\n", len(wire))
	}
}
