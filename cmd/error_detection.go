// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/internal/logging"
	"github.com/Thermoquad/meridian/internal/metrics"
	"github.com/Thermoquad/meridian/pkg/starneto"
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze malformed sentences and errors",
	Long: `Track sentence errors, malformed fields, and anomalous values with statistics.

This command validates each sentence and detects:
  - Checksum failures and bytes discarded outside of sentences
  - Decode failures (missing or unparsable fields)
  - Anomalous values (position or heading out of range, no fix,
    no satellites while positioning, implausible IMU temperature)
  - Statistics and trends (sentence rate, error rate, success rate)

By default, only errors are displayed. Use --show-all to display valid sentences too.

With --metrics the counters are also served for Prometheus on --metrics-addr.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().Bool("show-all", false, "Show all sentences (not just errors)")
	errorDetectionCmd.Flags().Int("stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().Bool("tui", false, "Use terminal UI (false for text mode)")
	errorDetectionCmd.Flags().Bool("metrics", false, "Serve Prometheus metrics")
	errorDetectionCmd.Flags().String("metrics-addr", ":9464", "Listen address for the metrics endpoint")
}

// monitorEvent is a pull result together with the parser counters at the
// time it was pulled
type monitorEvent struct {
	sentenceEvent
	parser starneto.ParserStats
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg.Connection)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected", zap.String("connection", connInfo))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	log := logger
	if cfg.Monitor.TUI {
		log = quietLogger(cmd)
	}

	reader := newSentenceReader(conn, cfg.Parser.BufferSize, log)
	if cfg.Metrics.Enable {
		reg := metrics.NewRegistry()
		reader.metrics = metrics.New(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, cfg.Metrics.Path, reg, log); err != nil {
				log.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	if cfg.Monitor.TUI {
		return runTUIMode(ctx, reader, connInfo)
	}
	return runTextMode(ctx, reader, connInfo)
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(ev sentenceEvent) {
	timestamp := ev.at.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, ev.decodeErr)
	fmt.Printf("  >>> SENTENCE REJECTED <<<\n\n")
}

// printValidationErrors prints validation errors for a sentence
func printValidationErrors(ev sentenceEvent) {
	timestamp := ev.at.Format("15:04:05.000")
	head := ev.sentence.Message.Head()

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (%s)\n", timestamp, starneto.FormatHead(head), head)
	fmt.Printf("  Checksum: \033[1;32mOK\033[0m (0x%02X)\n", ev.sentence.Checksum)

	for i, verr := range ev.validationErrors {
		switch verr.Type {
		case starneto.ANOMALY_INVALID_POSITION, starneto.ANOMALY_SYSTEM_ERROR:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, verr.Message)

		case starneto.ANOMALY_NO_SATELLITES:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, verr.Message)
			if nsv1, ok := verr.Details["nsv1"].(uint8); ok {
				if nsv2, ok := verr.Details["nsv2"].(uint8); ok {
					fmt.Printf("    NSV1=%d, NSV2=%d\n", nsv1, nsv2)
				}
			}

		case starneto.ANOMALY_NO_FIX, starneto.ANOMALY_INVALID_ANGLE, starneto.ANOMALY_INVALID_TEMP:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, verr.Message)

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, verr.Message)
		}
	}

	// Print the sentence for context
	fmt.Print(starneto.FormatMessage(ev.sentence.Message))
	fmt.Printf("  >>> ANOMALY FLAGGED <<<\n\n")
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(ctx context.Context, reader *sentenceReader, connInfo string) error {
	m := initialModel(connInfo, cfg.Monitor.StatsInterval, cfg.Monitor.ShowAll, cfg.Monitor.AnomalyLogLimit)
	p := tea.NewProgram(m, tea.WithContext(ctx))


	go func() {
		synchronized := false
		err := reader.run(ctx, func(ev sentenceEvent) bool {
			if !synchronized && ev.sentence != nil {
				synchronized = true
				p.Send(syncMsg{invalidBytes: reader.parser.Stats().SkippedBytes})
			}
			p.Send(monitorEvent{sentenceEvent: ev, parser: reader.parser.Stats()})
			return true
		})
		p.Send(streamEndMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(ctx context.Context, reader *sentenceReader, connInfo string) error {
	fmt.Printf("Meridian - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", cfg.Monitor.StatsInterval)
	if cfg.Monitor.ShowAll {
		fmt.Printf("Mode: All sentences\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	if cfg.Metrics.Enable {
		fmt.Printf("Metrics: http://%s%s\n", cfg.Metrics.Addr, cfg.Metrics.Path)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := starneto.NewStatistics()
	throttle := logging.NewThrottle(logger, cfg.Monitor.DecodeLogRate, cfg.Monitor.DecodeLogBurst)

	// Statistics ticker; a zero interval disables the periodic summary
	var statsTick <-chan time.Time
	if interval := cfg.StatsInterval(); interval > 0 {
		statsTicker := time.NewTicker(interval)
		defer statsTicker.Stop()
		statsTick = statsTicker.C
	}

	events := make(chan monitorEvent, 64)
	readDone := make(chan error, 1)
	go func() {
		defer close(events)
		readDone <- reader.run(ctx, func(ev sentenceEvent) bool {
			select {
			case events <- monitorEvent{sentenceEvent: ev, parser: reader.parser.Stats()}:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()

	synchronized := false

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				fmt.Println()
				fmt.Print(stats.String())
				return <-readDone
			}
			stats.ObserveParser(ev.parser)
			stats.Update(ev.sentence, ev.decodeErr, ev.validationErrors)

			if ev.decodeErr != nil {
				throttle.Warn("decode error", zap.Error(ev.decodeErr))
				printDecodeError(ev.sentenceEvent)
				continue
			}

			if !synchronized {
				synchronized = true
				if ev.parser.SkippedBytes > 0 {
					fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", ev.parser.SkippedBytes)
				} else {
					fmt.Printf("[SYNC] Synchronized\n\n")
				}
			}

			if len(ev.validationErrors) > 0 {
				printValidationErrors(ev.sentenceEvent)
			} else if cfg.Monitor.ShowAll {
				fmt.Print(starneto.FormatSentence(ev.sentence, ev.at))
			}

		case <-statsTick:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
