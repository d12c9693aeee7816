package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(string) bool
	}{
		{"json", "json", func(s string) bool { return strings.HasPrefix(s, "{") }},
		{"text", "text", func(s string) bool { return strings.Contains(s, "msg=hello") }},
		{"console alias", "console", func(s string) bool { return strings.Contains(s, "msg=hello") }},
		{"unknown falls back to json", "xml", func(s string) bool { return strings.HasPrefix(s, "{") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: tt.format, Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			l.Info("hello", "component", "relay")
			if !tt.check(buf.String()) {
				t.Errorf("unexpected %s output: %s", tt.format, buf.String())
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("dropped")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("below-level entries written: %s", buf.String())
	}

	l.Warn("kept")
	l.Error("kept")
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("entries = %d, want 2", n)
	}

	// Each logger keeps its own level.
	var debugBuf bytes.Buffer
	if _, err := New(Config{Level: "debug", Output: &debugBuf}); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	l.Debug("still dropped")
	if buf.Len() != 0 {
		t.Error("a later logger changed the level of an earlier one")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	l.With("component", "scheduler").Info("round complete", "seq", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["component"] != "scheduler" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["seq"] != float64(3) {
		t.Errorf("seq = %v", entry["seq"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetDefault_AlsoSetsSlogDefault(t *testing.T) {
	prevLogger, prevSlog := Default(), slog.Default()
	defer func() {
		SetDefault(prevLogger)
		slog.SetDefault(prevSlog)
	}()

	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})
	SetDefault(l)

	slog.Info("from slog")
	Info("from package")
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("entries = %d, want 2: %s", n, buf.String())
	}
}

func TestSlog(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	Slog(l).Info("via slog", "password", "hunter2")
	if !strings.Contains(buf.String(), redactedValue) {
		t.Errorf("Slog() logger should keep redaction: %s", buf.String())
	}

	if Slog(nil) == nil {
		t.Error("Slog(nil) should fall back to slog.Default()")
	}
}
