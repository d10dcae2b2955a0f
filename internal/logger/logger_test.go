package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.level); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, expected %v", tt.level, got, tt.expected)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	Use(zap.New(core))
	defer func() { defaultLogger = nil }()

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("skipping %s", "Unknown Grand Prix")
	Error("failed %s: %v", "Monaco Grand Prix", "boom")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "skipping Unknown Grand Prix" {
		t.Errorf("Unexpected message: %s", entries[0].Message)
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("Expected error level, got %v", entries[1].Level)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	defaultLogger = nil
	Debug("noop")
	Info("noop")
	Warn("noop")
	Error("noop")
	Sync()
}
