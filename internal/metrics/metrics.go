// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exposes decoder counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

const namespace = "meridian"

// NewRegistry creates a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics holds the decoder counters
type Metrics struct {
	Sentences      *prometheus.CounterVec // labels: head
	DecodeFailures *prometheus.CounterVec // labels: kind=missing_field|parse_failed
	Anomalies      *prometheus.CounterVec // labels: type
	ChecksumErrors prometheus.Counter
	SkippedBytes   prometheus.Counter
	ForcedDrops    prometheus.Counter
	BytesReceived  prometheus.Counter
	BufferFill     prometheus.Gauge // fraction of parser capacity in use

	last starneto.ParserStats
}

// New registers the decoder counters with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_total",
			Help:      "Checksum-valid sentences decoded, by head.",
		}, []string{"head"}),
		DecodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Checksum-valid sentences whose fields failed to decode.",
		}, []string{"kind"}),
		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Implausible values in decoded sentences, by type.",
		}, []string{"type"}),
		ChecksumErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checksum_errors_total",
			Help:      "Frames rejected by checksum.",
		}),
		SkippedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_bytes_total",
			Help:      "Bytes discarded outside of any frame.",
		}),
		ForcedDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_drops_total",
			Help:      "Single-byte drops from an unsynchronized buffer.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes read from the connection.",
		}),
		BufferFill: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_fill_ratio",
			Help:      "Fraction of the parser buffer holding unread bytes.",
		}),
	}
	reg.MustRegister(m.Sentences, m.DecodeFailures, m.Anomalies, m.ChecksumErrors,
		m.SkippedBytes, m.ForcedDrops, m.BytesReceived, m.BufferFill)
	return m
}

// ObserveSentence records one pull result from the parser
func (m *Metrics) ObserveSentence(sentence *starneto.Sentence, decodeErr error, validationErrors []starneto.ValidationError) {
	switch {
	case decodeErr != nil:
		kind := "parse_failed"
		if errors.Is(decodeErr, starneto.ErrMissingField) {
			kind = "missing_field"
		}
		m.DecodeFailures.WithLabelValues(kind).Inc()
	case sentence != nil:
		m.Sentences.WithLabelValues(sentence.Message.Head()).Inc()
	}
	for _, verr := range validationErrors {
		m.Anomalies.WithLabelValues(verr.Type.String()).Inc()
	}
}

// ObserveParser adds the framing counters accumulated since the previous call
// and samples the buffer fill
func (m *Metrics) ObserveParser(p *starneto.Parser) {
	ps := p.Stats()
	m.ChecksumErrors.Add(float64(ps.ChecksumErrors - m.last.ChecksumErrors))
	m.SkippedBytes.Add(float64(ps.SkippedBytes - m.last.SkippedBytes))
	m.ForcedDrops.Add(float64(ps.ForcedDrops - m.last.ForcedDrops))
	m.last = ps
	m.BufferFill.Set(float64(p.Buffered()) / float64(p.Cap()))
}

// ObserveRead records bytes read from the connection
func (m *Metrics) ObserveRead(n int) {
	if n > 0 {
		m.BytesReceived.Add(float64(n))
	}
}

// Serve runs the metrics endpoint until ctx is cancelled
func Serve(ctx context.Context, addr, path string, reg *prometheus.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, Handler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr), zap.String("path", path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("metrics endpoint stopped")
		return nil
	}
}
