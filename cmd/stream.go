// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/internal/metrics"
	"github.com/Thermoquad/meridian/pkg/starneto"
)

// sentenceEvent is one result pulled from the parser: a sentence with its
// validation findings, or a decode error
type sentenceEvent struct {
	at               time.Time
	sentence         *starneto.Sentence
	decodeErr        error
	validationErrors []starneto.ValidationError
}

// sentenceReader feeds a parser from a connection
type sentenceReader struct {
	conn    Connection
	parser  *starneto.Parser
	metrics *metrics.Metrics // optional
	logger  *zap.Logger
}

func newSentenceReader(conn Connection, bufferSize int, log *zap.Logger) *sentenceReader {
	return &sentenceReader{
		conn:   conn,
		parser: starneto.NewParser(bufferSize),
		logger: log,
	}
}

// run reads until the source ends, a read fails, ctx is cancelled or handle
// returns false. Cancelling ctx closes the connection to unblock the read.
// An ended source or cancelled context is not an error.
func (r *sentenceReader) run(ctx context.Context, handle func(sentenceEvent) bool) error {
	stop := context.AfterFunc(ctx, func() { r.conn.Close() })
	defer stop()

	for {
		n, err := r.parser.Fill(r.conn)
		if r.metrics != nil {
			r.metrics.ObserveRead(n)
		}
		if !r.drain(handle) {
			return nil
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if isEndOfStream(err) {
			r.logger.Info("source closed", zap.Uint64("sentences", r.parser.Stats().Sentences))
			return nil
		}
		r.logger.Error("read failed", zap.Error(err))
		return fmt.Errorf("read error: %w", err)
	}
}

// drain pulls every complete sentence out of the parser
func (r *sentenceReader) drain(handle func(sentenceEvent) bool) bool {
	defer func() {
		if r.metrics != nil {
			r.metrics.ObserveParser(r.parser)
		}
	}()

	for {
		sentence, err := r.parser.Next()
		if sentence == nil && err == nil {
			return true
		}

		ev := sentenceEvent{at: time.Now(), sentence: sentence, decodeErr: err}
		if sentence != nil {
			ev.validationErrors = starneto.ValidateMessage(sentence.Message)
		}
		if r.metrics != nil {
			r.metrics.ObserveSentence(sentence, err, ev.validationErrors)
		}
		if !handle(ev) {
			return false
		}
	}
}

func isEndOfStream(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) || errors.Is(err, os.ErrClosed) {
		return true
	}
	var portErr *serial.PortError
	return errors.As(err, &portErr) && portErr.Code() == serial.PortClosed
}

// printBanner prints the header shared by the streaming commands
func printBanner(title, connInfo string) {
	fmt.Printf("Meridian - %s\n", title)
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")
}
