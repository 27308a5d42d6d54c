// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Throttle rate limits a noisy log line. Lines over the limit are counted and
// the count is reported on the next line that gets through.
type Throttle struct {
	logger     *zap.Logger
	limiter    *rate.Limiter
	allowed    uint64
	suppressed uint64
	pending    uint64
}

// NewThrottle allows perSecond lines per second with bursts of burst.
// Non-positive values fall back to one line per second and a burst of 5.
func NewThrottle(logger *zap.Logger, perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 5
	}
	return &Throttle{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Warn logs msg at warn level if the limiter allows it.
// Returns true if the line was written.
func (t *Throttle) Warn(msg string, fields ...zap.Field) bool {
	if !t.limiter.Allow() {
		t.suppressed++
		t.pending++
		return false
	}
	t.allowed++
	if t.pending > 0 {
		fields = append(fields, zap.Uint64("suppressed", t.pending))
		t.pending = 0
	}
	t.logger.Warn(msg, fields...)
	return true
}

// Allowed returns the number of lines written
func (t *Throttle) Allowed() uint64 { return t.allowed }

// Suppressed returns the number of lines dropped by the limiter
func (t *Throttle) Suppressed() uint64 { return t.suppressed }
