package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func newBufferLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return logEntry
}

func TestRedactSensitive_BasicAuthValue(t *testing.T) {
	l, buf := newBufferLogger(t)

	header := "Basic Z3JpbjpzM2NyM3RQYXNzd29yZA=="
	l.Info("node request", "header", header)

	got, ok := decodeEntry(t, buf)["header"].(string)
	if !ok {
		t.Fatal("Expected header field in log")
	}
	if got != "Basic Z3J...ZA==" {
		t.Errorf("header mask format incorrect, got: %s", got)
	}
}

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	l, buf := newBufferLogger(t)

	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"password", "mysecret123", "***REDACTED***"},
		{"node_secret", "s3cr3t", "***REDACTED***"},
		{"api_token", "xyz", "***REDACTED***"},
		{"Authorization", "opaque", "***REDACTED***"},
		{"comsig", "0a0b0c", "***REDACTED***"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)

			val, ok := decodeEntry(t, buf)[tt.key].(string)
			if !ok {
				t.Fatalf("Expected %s field in log", tt.key)
			}
			if val != tt.expected {
				t.Errorf("Key %q should be redacted to %q, got %q", tt.key, tt.expected, val)
			}
		})
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	l, buf := newBufferLogger(t)

	commit := "08" + "ab" + "cd"
	l.Info("swap accepted", "commit", commit, "method", "swap", "secret_path", "")

	entry := decodeEntry(t, buf)
	if entry["commit"] != commit {
		t.Errorf("commit = %v, want unchanged", entry["commit"])
	}
	if entry["method"] != "swap" {
		t.Errorf("method = %v, want unchanged", entry["method"])
	}
	if entry["secret_path"] != "" {
		t.Errorf("empty sensitive value should stay empty, got %v", entry["secret_path"])
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.Info("config", slog.Group("node", "url", "http://127.0.0.1:3413", "secret", "hunter2"))

	node, ok := decodeEntry(t, buf)["node"].(map[string]any)
	if !ok {
		t.Fatal("Expected node group in log")
	}
	if node["secret"] != redactedValue {
		t.Errorf("node.secret = %v, want redacted", node["secret"])
	}
	if node["url"] != "http://127.0.0.1:3413" {
		t.Errorf("node.url = %v, want unchanged", node["url"])
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Basic Z3JpbjpzM2NyM3Q=", "Basic Z3J...M3Q="},
		{"Bearer abc", "Bearer ***"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"NODE_SECRET", true},
		{"comsig", true},
		{"commit", false},
		{"request_id", false},
	}
	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestIsSensitiveValue(t *testing.T) {
	if !IsSensitiveValue("Basic abc") {
		t.Error("basic auth header should be sensitive")
	}
	if IsSensitiveValue("0801ab") {
		t.Error("commitment hex should not be sensitive")
	}
}

func TestMaskValue(t *testing.T) {
	if got := maskValue("Basic abcdefghij", "Basic "); got != "Basic abc...hij" {
		t.Errorf("maskValue() = %q", got)
	}
	if got := maskValue("Basic abc", "Basic "); got != "Basic ***" {
		t.Errorf("maskValue(short) = %q", got)
	}
}
