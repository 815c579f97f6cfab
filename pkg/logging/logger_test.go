// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLevelString verifies the level name mapping.
func TestLevelString(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

// TestParseLevel verifies name-to-level parsing, including the Info
// fallback for unknown names.
func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.name); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// TestToSlogLevel verifies the bridge to slog levels.
func TestToSlogLevel(t *testing.T) {
	if got := LevelWarn.toSlogLevel(); got != slog.LevelWarn {
		t.Errorf("LevelWarn.toSlogLevel() = %v, want %v", got, slog.LevelWarn)
	}
	if got := Level(99).toSlogLevel(); got != slog.LevelInfo {
		t.Errorf("unknown level should bridge to Info, got %v", got)
	}
}

// TestDefaultLogger verifies that the zero-config logger is usable and
// that Close is safe without a file.
func TestDefaultLogger(t *testing.T) {
	logger := Default()
	logger.Info("test message", "key", "value")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on file-less logger returned %v", err)
	}
}

// TestFileLogging verifies that file logging creates the dated log file
// and writes entries to it.
func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})

	logger.Info("file entry", "answer", 42)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() returned %v", err)
	}

	name := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "file entry") {
		t.Errorf("log file missing entry, got: %s", data)
	}
	if !strings.Contains(string(data), `"service":"testsvc"`) {
		t.Errorf("log file missing service attribute, got: %s", data)
	}
}

// TestFileLoggingCreatesDirectory verifies automatic directory
// creation for nested log directories.
func TestFileLoggingCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger := New(Config{LogDir: dir, Service: "testsvc", Quiet: true})
	logger.Info("entry")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() returned %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("log directory was not created: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 log file, found %d", len(entries))
	}
}

// TestWithAttributes verifies that With produces a child logger that
// shares destinations and carries the extra attributes.
func TestWithAttributes(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "testsvc", Quiet: true})
	child := logger.With("request_id", "req-1")
	child.Info("child entry")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() returned %v", err)
	}

	name := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"request_id":"req-1"`) {
		t.Errorf("child attributes missing from log file, got: %s", data)
	}
}

// TestLevelFiltering verifies that messages below the configured level
// are discarded.
func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelWarn, LogDir: dir, Service: "testsvc", Quiet: true})
	logger.Debug("debug entry")
	logger.Info("info entry")
	logger.Warn("warn entry")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() returned %v", err)
	}

	name := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "info entry") || strings.Contains(text, "debug entry") {
		t.Errorf("entries below Warn should be filtered, got: %s", text)
	}
	if !strings.Contains(text, "warn entry") {
		t.Errorf("warn entry missing from log file, got: %s", text)
	}
}
