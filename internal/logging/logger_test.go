package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"WARNING": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for input, want := range testCases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNewLoggerWritesFileSink(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "site.log")
	logger, err := NewLogger(Options{Level: "info", Format: "console", File: logPath})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	logger.Info("inquiry received")
	_ = logger.Sync()

	contents, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(contents), "inquiry received") {
		t.Fatalf("expected log entry in file, got %q", string(contents))
	}
}
