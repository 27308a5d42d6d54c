// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

var (
	surveyTimeout int
)

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "List the sentence types a receiver is emitting",
	Long: `Listen for a fixed period and report every sentence type seen.

Each head is announced the first time it appears. At the end a summary lists
every head with its sentence count and output rate, which shows at a glance
how the receiver's output is configured.

Examples:
  meridian survey --port /dev/ttyUSB0
  meridian survey --url ws://bridge.local/nmea --timeout 10

Exit codes:
  0 - At least one sentence type found
  1 - No valid sentences within the timeout
  2 - Connection error`,
	RunE: runSurvey,
}

func init() {
	rootCmd.AddCommand(surveyCmd)
	surveyCmd.Flags().IntVar(&surveyTimeout, "timeout", 5, "Listening period in seconds")
}

// headInfo tracks one sentence head seen during a survey
type headInfo struct {
	head      string
	count     uint64
	firstSeen time.Time
	lastSeen  time.Time
}

// rate returns sentences per second between first and last sighting
func (h headInfo) rate() float64 {
	span := h.lastSeen.Sub(h.firstSeen).Seconds()
	if h.count < 2 || span <= 0 {
		return 0
	}
	return float64(h.count-1) / span
}

// surveyResult accumulates sightings by head
type surveyResult struct {
	heads map[string]*headInfo
}

func newSurveyResult() *surveyResult {
	return &surveyResult{heads: make(map[string]*headInfo)}
}

// observe records a sentence and reports whether its head is new
func (r *surveyResult) observe(s *starneto.Sentence, at time.Time) bool {
	head := s.Message.Head()
	info, ok := r.heads[head]
	if !ok {
		info = &headInfo{head: head, firstSeen: at}
		r.heads[head] = info
	}
	info.count++
	info.lastSeen = at
	return !ok
}

// sorted returns the heads ordered by name
func (r *surveyResult) sorted() []headInfo {
	out := make([]headInfo, 0, len(r.heads))
	for _, info := range r.heads {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].head < out[j].head })
	return out
}

func runSurvey(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg.Connection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Meridian - Sentence Survey\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", surveyTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(surveyTimeout)*time.Second)
	defer cancel()

	result := newSurveyResult()
	reader := newSentenceReader(conn, cfg.Parser.BufferSize, logger)
	err = reader.run(ctx, func(ev sentenceEvent) bool {
		if ev.sentence == nil {
			return true
		}
		if result.observe(ev.sentence, ev.at) {
			head := ev.sentence.Message.Head()
			fmt.Printf("Sentence found: %s (%s)\n", head, starneto.FormatHead(head))
		}
		return true
	})
	if err != nil {
		fmt.Printf("READ FAILED: %v\n", err)
		os.Exit(2)
	}

	stats := reader.parser.Stats()
	heads := result.sorted()

	fmt.Printf("\n--- Survey summary ---\n")
	fmt.Printf("Sentence types found: %d\n", len(heads))
	for _, h := range heads {
		fmt.Printf("  %-8s %-18s %6d sentences  %6.1f Hz\n", h.head, starneto.FormatHead(h.head), h.count, h.rate())
	}
	fmt.Printf("Checksum errors: %d, decode errors: %d, skipped bytes: %d\n",
		stats.ChecksumErrors, stats.DecodeErrors, stats.SkippedBytes)

	if len(heads) == 0 {
		fmt.Printf("No sentences received. Check connection, baud rate and receiver power.\n")
		os.Exit(1)
	}

	return nil
}
