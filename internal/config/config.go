// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads meridian settings from an optional config file,
// MERIDIAN_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

// EnvPrefix is prepended to every environment override, e.g.
// MERIDIAN_CONNECTION_PORT
const EnvPrefix = "MERIDIAN"

// ConnectionConfig selects the byte source. Exactly one of Port, URL or File
// is expected to be set.
type ConnectionConfig struct {
	Port        string `mapstructure:"port"`
	Baud        int    `mapstructure:"baud"`
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	NoSSLVerify bool   `mapstructure:"no_ssl_verify"`
	File        string `mapstructure:"file"`
}

// ParserConfig sizes the sentence parser
type ParserConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// MonitorConfig controls the error_detection command
type MonitorConfig struct {
	StatsInterval   int     `mapstructure:"stats_interval"` // seconds
	ShowAll         bool    `mapstructure:"show_all"`
	TUI             bool    `mapstructure:"tui"`
	DecodeLogRate   float64 `mapstructure:"decode_log_rate"` // decode error log lines per second
	DecodeLogBurst  int     `mapstructure:"decode_log_burst"`
	AnomalyLogLimit int     `mapstructure:"anomaly_log_limit"`
}

// OutputConfig controls how decoded sentences are printed
type OutputConfig struct {
	Format string `mapstructure:"format"` // text, yaml or cbor
}

// LumberjackConfig configures the rotating log file
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig configures the operational logger
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"` // console or json
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

// Config is the top-level configuration
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Parser     ParserConfig     `mapstructure:"parser"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Output     OutputConfig     `mapstructure:"output"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// FlagKeys maps command line flag names to configuration keys
var FlagKeys = map[string]string{
	"port":           "connection.port",
	"baud":           "connection.baud",
	"url":            "connection.url",
	"username":       "connection.username",
	"no-ssl-verify":  "connection.no_ssl_verify",
	"file":           "connection.file",
	"buffer-size":    "parser.buffer_size",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"log-file":       "logging.file.filename",
	"stats-interval": "monitor.stats_interval",
	"show-all":       "monitor.show_all",
	"tui":            "monitor.tui",
	"format":         "output.format",
	"metrics":        "metrics.enable",
	"metrics-addr":   "metrics.addr",
}

// Load reads configuration with precedence flag > env > file > default.
// An empty path skips the config file. Only flags present in FlagKeys and
// in flags are bound; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.port", "")
	v.SetDefault("connection.baud", 115200)
	v.SetDefault("connection.url", "")
	v.SetDefault("connection.username", "")
	v.SetDefault("connection.no_ssl_verify", false)
	v.SetDefault("connection.file", "")

	v.SetDefault("parser.buffer_size", starneto.DefaultBufferSize)

	v.SetDefault("monitor.stats_interval", 10)
	v.SetDefault("monitor.show_all", false)
	v.SetDefault("monitor.tui", false)
	v.SetDefault("monitor.decode_log_rate", 1.0)
	v.SetDefault("monitor.decode_log_burst", 5)
	v.SetDefault("monitor.anomaly_log_limit", 100)

	v.SetDefault("output.format", "text")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 7)
	v.SetDefault("logging.file.max_age", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9464")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks settings that the commands cannot recover from
func (c *Config) Validate() error {
	if c.Parser.BufferSize < starneto.MinBufferSize {
		return fmt.Errorf("parser.buffer_size %d is below the minimum of %d", c.Parser.BufferSize, starneto.MinBufferSize)
	}

	sources := 0
	for _, s := range []string{c.Connection.Port, c.Connection.URL, c.Connection.File} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("only one of --port, --url or --file may be specified")
	}
	if c.Connection.Port != "" && c.Connection.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Connection.Baud)
	}

	switch c.Output.Format {
	case "text", "yaml", "cbor":
	default:
		return fmt.Errorf("unsupported output format %q (use text, yaml or cbor)", c.Output.Format)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q (use console or json)", c.Logging.Format)
	}

	if c.Monitor.StatsInterval < 0 {
		return fmt.Errorf("monitor.stats_interval must not be negative")
	}

	return nil
}

// StatsInterval returns the statistics period as a duration
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Monitor.StatsInterval) * time.Second
}
