// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger shared by every component.
//
// The TUI owns the terminal, so it logs to a file. CLI commands log to
// stderr through a console writer.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/peakabot-tui/internal/config"
)

// Sink selects where log output goes.
type Sink int

const (
	// SinkFile appends JSON lines to the configured log file.
	SinkFile Sink = iota
	// SinkConsole writes human readable lines to stderr.
	SinkConsole
)

// Options controls New.
type Options struct {
	Sink Sink
	// Verbose forces debug level.
	Verbose bool
}

// ParseLevel maps a config level name to a zerolog level.
// Unknown names fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger from cfg. The returned closer releases the log file
// and must be called on exit; it is a no-op for the console sink.
func New(cfg *config.Config, opts Options) (zerolog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Logging.Level)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	if opts.Sink == SinkConsole {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		return NewWithWriter(w, level), nopCloser{}, nil
	}

	path, err := cfg.LogPath()
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
	}
	// SECURITY: Log may contain thread titles, keep it owner-only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewWithWriter(f, level), f, nil
}

// NewWithWriter builds a logger writing to w at level.
func NewWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
