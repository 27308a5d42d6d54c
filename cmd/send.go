// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

var (
	sendTimeout int
	sendCount   int
)

var sendCmd = &cobra.Command{
	Use:   "send <verb> [payload...]",
	Short: "Send a $cmd command and wait for the receiver's acknowledgement",
	Long: `Send a command sentence to the receiver and wait for a $cmd reply.

The command is written as $cmd,<verb>,<payload>*ff followed by CRLF. Payload
arguments are joined with commas. Any $cmd sentence received afterwards is
taken as the acknowledgement; other sentences are ignored.

Examples:
  meridian send get product --port /dev/ttyUSB0
  meridian send set baud 460800 --url ws://bridge.local/nmea

Exit codes:
  0 - Every command acknowledged
  1 - One or more commands failed or timed out
  2 - Connection error`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendTimeout, "timeout", 5, "Timeout in seconds for each acknowledgement")
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "Number of times to send the command")
}

// commandFromArgs builds the command for "send <verb> [payload...]"
func commandFromArgs(args []string) *starneto.Command {
	return starneto.NewCommand(starneto.CommandVerb(args[0]), strings.Join(args[1:], ","))
}

func runSend(cmd *cobra.Command, args []string) error {
	if sendCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	command := commandFromArgs(args)
	if !command.Verb.Known() {
		logger.Warn("sending unrecognized verb", zap.String("verb", string(command.Verb)))
	}

	conn, connInfo, err := OpenConnection(cfg.Connection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	wireBytes := starneto.EncodeCommand(command)

	fmt.Printf("Meridian - Send Command\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Command: %s\n", strings.TrimSpace(string(wireBytes)))
	fmt.Printf("Timeout: %d seconds per command\n", sendTimeout)
	fmt.Printf("Count: %d\n\n", sendCount)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// One reader for the whole session; acknowledgements arrive on acks
	acks := make(chan *starneto.Command, 8)
	readDone := make(chan error, 1)
	reader := newSentenceReader(conn, cfg.Parser.BufferSize, logger)
	go func() {
		readDone <- reader.run(ctx, func(ev sentenceEvent) bool {
			if ev.sentence == nil {
				return true
			}
			if ack, ok := ev.sentence.Message.(*starneto.Command); ok {
				select {
				case acks <- ack:
				default:
				}
			}
			return true
		})
	}()

	successCount := 0
	failCount := 0

	for i := 1; i <= sendCount; i++ {
		fmt.Printf("Command %d/%d: ", i, sendCount)

		// Discard acknowledgements that arrived late for an earlier command
	drain:
		for {
			select {
			case <-acks:
			default:
				break drain
			}
		}

		startTime := time.Now()
		if _, err := conn.Write(wireBytes); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		select {
		case ack := <-acks:
			rtt := time.Since(startTime)
			fmt.Printf("ACK %s, rtt=%v\n", starneto.Rebuild(starneto.HeadCommand, ack.Tail(), 0), rtt.Round(time.Millisecond))
			logger.Debug("command acknowledged", zap.String("verb", string(ack.Verb)), zap.Duration("rtt", rtt))
			successCount++

		case err := <-readDone:
			if err == nil {
				err = errSourceClosed
			}
			fmt.Printf("READ FAILED: %v\n", err)
			failCount += sendCount - i + 1
			i = sendCount

		case <-time.After(time.Duration(sendTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no acknowledgement in %ds)\n", sendTimeout)
			failCount++
		}

		// Small delay between commands
		if i < sendCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Command statistics ---\n")
	fmt.Printf("%d commands sent, %d acknowledged, %.0f%% loss\n",
		sendCount, successCount, float64(failCount)/float64(sendCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
