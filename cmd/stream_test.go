// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/internal/metrics"
	"github.com/Thermoquad/meridian/pkg/starneto"
)

// ============================================================
// Test Helpers
// ============================================================

const (
	ggaTail    = "060220.00,3959.55874779,N,11619.61828897,E,1,17,1.6,60.1397,M,-9.2862,M,,"
	badGGATail = "060220.00,3959.55874779,E"
	rmcTail    = "060220.00,A,3959.55874779,N,11619.61828897,E,0.0,0.0,150824,,,A"
)

// sentenceLine renders a wire sentence with a correct checksum
func sentenceLine(head, tail string) string {
	return starneto.Rebuild(head, tail, starneto.Checksum(head, tail)) + "\r\n"
}

func replay(data string) *FileConnection {
	return &FileConnection{r: io.NopCloser(strings.NewReader(data))}
}

// collect runs a reader over data and returns every event
func collect(t *testing.T, reader *sentenceReader) []sentenceEvent {
	t.Helper()
	var events []sentenceEvent
	err := reader.run(context.Background(), func(ev sentenceEvent) bool {
		events = append(events, ev)
		return true
	})
	require.NoError(t, err)
	return events
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }
func (f failingReader) Close() error             { return nil }

// ============================================================
// Sentence Reader Tests
// ============================================================

func TestSentenceReader_Stream(t *testing.T) {
	data := "garbage" +
		sentenceLine(starneto.HeadGGA, ggaTail) +
		sentenceLine(starneto.HeadGGA, badGGATail) +
		sentenceLine(starneto.HeadRMC, rmcTail) +
		"$cmd,get,product*ff\r\n"

	reader := newSentenceReader(replay(data), 1024, zap.NewNop())
	events := collect(t, reader)
	require.Len(t, events, 4)

	require.NotNil(t, events[0].sentence)
	assert.Equal(t, starneto.HeadGGA, events[0].sentence.Message.Head())
	assert.Empty(t, events[0].validationErrors)

	assert.Nil(t, events[1].sentence)
	assert.ErrorIs(t, events[1].decodeErr, starneto.ErrParseFailed)

	require.NotNil(t, events[2].sentence)
	assert.Equal(t, starneto.HeadRMC, events[2].sentence.Message.Head())

	require.NotNil(t, events[3].sentence)
	command, ok := events[3].sentence.Message.(*starneto.Command)
	require.True(t, ok)
	assert.Equal(t, starneto.VerbGet, command.Verb)
	assert.Equal(t, "product", command.Payload)

	stats := reader.parser.Stats()
	assert.Equal(t, uint64(3), stats.Sentences)
	assert.Equal(t, uint64(1), stats.DecodeErrors)
	assert.Equal(t, uint64(7), stats.SkippedBytes)
	assert.Zero(t, stats.ChecksumErrors)
}

func TestSentenceReader_SmallBuffer(t *testing.T) {
	// A buffer smaller than one sentence still drains through forced drops
	data := strings.Repeat(sentenceLine(starneto.HeadRMC, rmcTail), 3)

	reader := newSentenceReader(replay(data), 16, zap.NewNop())
	events := collect(t, reader)

	assert.Empty(t, events)
	assert.NotZero(t, reader.parser.Stats().ForcedDrops)
}

func TestSentenceReader_HandleStops(t *testing.T) {
	data := strings.Repeat(sentenceLine(starneto.HeadRMC, rmcTail), 5)

	reader := newSentenceReader(replay(data), 1024, zap.NewNop())
	count := 0
	err := reader.run(context.Background(), func(ev sentenceEvent) bool {
		count++
		return false
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSentenceReader_ReadError(t *testing.T) {
	conn := &FileConnection{r: failingReader{err: errors.New("boom")}}

	reader := newSentenceReader(conn, 256, zap.NewNop())
	err := reader.run(context.Background(), func(sentenceEvent) bool { return true })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read error")
	assert.Contains(t, err.Error(), "boom")
}

func TestSentenceReader_CancelClosesConnection(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	reader := newSentenceReader(&FileConnection{r: pr}, 256, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- reader.run(ctx, func(sentenceEvent) bool { return true })
	}()

	_, err := pw.Write([]byte(sentenceLine(starneto.HeadRMC, rmcTail)))
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop after cancel")
	}
}

func TestSentenceReader_Metrics(t *testing.T) {
	data := sentenceLine(starneto.HeadGGA, ggaTail) +
		sentenceLine(starneto.HeadGGA, badGGATail) +
		"$GPRMC,bad*11\r\n"

	reader := newSentenceReader(replay(data), 1024, zap.NewNop())
	reader.metrics = metrics.New(prometheus.NewRegistry())
	collect(t, reader)

	assert.Equal(t, 1.0, testutil.ToFloat64(reader.metrics.Sentences.WithLabelValues(starneto.HeadGGA)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reader.metrics.ChecksumErrors))
	assert.Equal(t, float64(len(data)), testutil.ToFloat64(reader.metrics.BytesReceived))
}

func TestIsEndOfStream(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"eof", io.EOF, true},
		{"websocket closed", ErrConnectionClosed, true},
		{"wrapped file closed", fmt.Errorf("read: %w", os.ErrClosed), true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isEndOfStream(tt.err))
		})
	}
}
