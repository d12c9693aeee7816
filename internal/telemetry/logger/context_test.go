package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() without logger should return the default")
	}

	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})
	ctx := WithLogger(context.Background(), l)

	FromContext(ctx).Info("scoped")
	if buf.Len() == 0 {
		t.Error("FromContext() did not return the stored logger")
	}
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "01J9ZQ3K6W5V4N8R2T7Y1X0ABC")
	if got := RequestIDFromContext(ctx); got != "01J9ZQ3K6W5V4N8R2T7Y1X0ABC" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
}

func TestL_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithRequestID(WithLogger(context.Background(), l), "req-1")
	L(ctx).Info("handled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("request_id = %v", entry["request_id"])
	}

	buf.Reset()
	L(WithLogger(context.Background(), l)).Info("no id")
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if _, ok := entry["request_id"]; ok {
		t.Error("request_id should be absent without one in context")
	}
}
