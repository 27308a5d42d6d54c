// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/Thermoquad/meridian/internal/config"
)

// ============================================================================
// Logger Tests
// ============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger = WithSession(logger, "a1b2c3d4", "raw_log")
	logger.Debug("hidden")
	logger.Info("connected", zap.Int("baud", 115200))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "connected", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "a1b2c3d4", entry["session"])
	assert.Equal(t, "raw_log", entry["command"])
	assert.EqualValues(t, 115200, entry["baud"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "console"}, &buf)
	require.NoError(t, err)

	logger.Debug("scanning")
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "debug")
	assert.Contains(t, buf.String(), "scanning")
}

func TestNewWithWriter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meridian.log")
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		File:   config.LumberjackConfig{Filename: path, MaxSizeMB: 1},
	}, &buf)
	require.NoError(t, err)

	logger.Info("rotating")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotating")
	assert.Contains(t, buf.String(), "rotating")
}

func TestNewWithWriter_BadLevel(t *testing.T) {
	_, err := NewWithWriter(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

// ============================================================================
// Throttle Tests
// ============================================================================

func TestThrottle_SuppressesOverBurst(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	throttle := NewThrottle(zap.New(core), 0.001, 2)

	assert.True(t, throttle.Warn("decode error"))
	assert.True(t, throttle.Warn("decode error"))
	for i := 0; i < 5; i++ {
		assert.False(t, throttle.Warn("decode error"))
	}

	assert.Equal(t, 2, logs.Len())
	assert.EqualValues(t, 2, throttle.Allowed())
	assert.EqualValues(t, 5, throttle.Suppressed())
}

func TestThrottle_ReportsSuppressedCount(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	throttle := NewThrottle(zap.New(core), 0.001, 1)

	throttle.Warn("first")
	throttle.Warn("dropped")
	throttle.Warn("dropped")

	throttle.limiter.SetLimit(rate.Inf)
	require.True(t, throttle.Warn("after"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "after", entries[1].Message)
	assert.EqualValues(t, 2, entries[1].ContextMap()["suppressed"])
}

func TestThrottle_Defaults(t *testing.T) {
	throttle := NewThrottle(zap.NewNop(), 0, 0)
	assert.Equal(t, 5, throttle.limiter.Burst())
	assert.InDelta(t, 1.0, float64(throttle.limiter.Limit()), 1e-9)
}
