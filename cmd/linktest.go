// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Test connection stability over a fixed period",
	Long: `Hold the connection open for a fixed period and report its health.

This command reads from the connection without sending anything, printing a
heartbeat every second with the bytes and sentences received so far. Useful
for debugging dropped serial links and WebSocket bridges that disconnect.

Exit codes:
  0 - Connection stayed up for the whole period
  1 - Connection failed during the test
  2 - Connection error`,
	RunE: runLinkTest,
}

var linkTestDuration int

var errSourceClosed = errors.New("source closed")

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().IntVar(&linkTestDuration, "duration", 30, "Test duration in seconds")
}

// countingConnection counts bytes read through a connection
type countingConnection struct {
	Connection
	n atomic.Uint64
}

func (c *countingConnection) Read(p []byte) (int, error) {
	n, err := c.Connection.Read(p)
	c.n.Add(uint64(n))
	return n, err
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	raw, connInfo, err := OpenConnection(cfg.Connection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	conn := &countingConnection{Connection: raw}
	defer conn.Close()

	fmt.Printf("Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkTestDuration)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var sentences atomic.Uint64
	reader := newSentenceReader(conn, cfg.Parser.BufferSize, logger)
	readDone := make(chan error, 1)
	go func() {
		readDone <- reader.run(ctx, func(ev sentenceEvent) bool {
			if ev.sentence != nil {
				sentences.Add(1)
			}
			return true
		})
	}()

	start := time.Now()
	endTime := start.Add(time.Duration(linkTestDuration) * time.Second)
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	fmt.Printf("Listening for data...\n\n")

	for time.Now().Before(endTime) {
		select {
		case err := <-readDone:
			if err == nil {
				err = errSourceClosed
			}
			logger.Error("link lost", zap.Error(err), zap.Duration("after", time.Since(start)))
			fmt.Printf("\n[%s] Connection error: %v\n", time.Now().Format("15:04:05.000"), err)
			printLinkResults(time.Since(start), sentences.Load(), conn.n.Load())
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-cmd.Context().Done():
			printLinkResults(time.Since(start), sentences.Load(), conn.n.Load())
			fmt.Printf("Result: INTERRUPTED\n")
			os.Exit(1)

		case <-heartbeat.C:
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... %d bytes, %d sentences (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), conn.n.Load(), sentences.Load(), remaining)
		}
	}

	printLinkResults(time.Duration(linkTestDuration)*time.Second, sentences.Load(), conn.n.Load())
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}

func printLinkResults(elapsed time.Duration, sentences, bytes uint64) {
	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Sentences received: %d\n", sentences)
	fmt.Printf("Bytes received: %d\n", bytes)
}
