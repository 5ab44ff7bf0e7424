package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.Warn(context.Background(), "limiter degraded", "category", "login")

	out := buf.String()
	if !strings.Contains(out, `"msg":"limiter degraded"`) {
		t.Fatalf("missing message: %s", out)
	}
	if !strings.Contains(out, `"category":"login"`) {
		t.Fatalf("missing field: %s", out)
	}
}

func TestWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	child := l.With("component", "engine")
	child.Info(context.Background(), "started")

	if !strings.Contains(buf.String(), `"component":"engine"`) {
		t.Fatalf("missing persistent field: %s", buf.String())
	}
}

func TestNopLoggerIsInert(t *testing.T) {
	var l Logger = NopLogger{}
	l.Info(context.Background(), "ignored")
	l = l.With("k", "v")
	l.Error(context.Background(), "still ignored")
}
