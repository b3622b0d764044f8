package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/temppub/internal/infrastructure/config"
)

func TestNew_JSONFormat(t *testing.T) {
	logger := New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "1.0.0")

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() without file error = %v", err)
	}
}

func TestNew_TextFormat(t *testing.T) {
	logger := New(config.LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stderr",
	}, "1.0.0")

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "temppub.log")

	logger := New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stderr",
		File: config.FileLoggingConfig{
			Path:       path,
			MaxSize:    1,
			MaxBackups: 1,
		},
	}, "test")

	logger.Info("reading published", "temperature_id", "temp-abcde")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "temp-abcde") {
		t.Errorf("log file = %q, want it to contain the logged attribute", data)
	}

	// A second Close is a no-op.
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{name: "debug level", input: "debug", expected: slog.LevelDebug},
		{name: "info level", input: "info", expected: slog.LevelInfo},
		{name: "warn level", input: "warn", expected: slog.LevelWarn},
		{name: "warning level", input: "warning", expected: slog.LevelWarn},
		{name: "error level", input: "error", expected: slog.LevelError},
		{name: "unknown defaults to info", input: "unknown", expected: slog.LevelInfo},
		{name: "empty defaults to info", input: "", expected: slog.LevelInfo},
		{name: "case insensitive", input: "DEBUG", expected: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	logger := Default()
	childLogger := logger.With("component", "mqtt")

	if childLogger == nil {
		t.Fatal("expected non-nil child logger")
	}
	if childLogger == logger {
		t.Error("expected child logger to be different from parent")
	}
}

func TestLogger_OutputContainsDefaultFields(t *testing.T) {
	var buf bytes.Buffer

	logger := newWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "test")
	logger.Info("test message", "key", "value")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if logEntry["service"] != "temppub" {
		t.Errorf("expected service='temppub', got %v", logEntry["service"])
	}
	if logEntry["version"] != "test" {
		t.Errorf("expected version='test', got %v", logEntry["version"])
	}
	if logEntry["msg"] != "test message" {
		t.Errorf("expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("expected key='value', got %v", logEntry["key"])
	}
	if _, ok := logEntry["time"]; !ok {
		t.Error("expected a timestamp on every entry")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := newWithWriter(&buf, config.LoggingConfig{Level: "warn", Format: "text"}, "test")
	logger.Info("dropped")
	logger.Warn("kept")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(output, "kept") {
		t.Error("warn entry should be written at warn level")
	}
}
