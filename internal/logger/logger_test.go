package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warning ", LevelWarn},
		{"Error", LevelError},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlogLoggerWritesContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(Config{Level: LevelInfo, Format: "json", Output: &buf, Service: "moodlens-test"})

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "user-1")
	l.WithContext(ctx).Info("entry appended", Int("mood_score", 7), Err(errors.New("boom")))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	for key, want := range map[string]any{
		"msg":        "entry appended",
		"service":    "moodlens-test",
		"request_id": "req-1",
		"user_id":    "user-1",
		"mood_score": float64(7),
		"error":      "boom",
	} {
		if line[key] != want {
			t.Errorf("%s = %v, want %v", key, line[key], want)
		}
	}
}

func TestSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(Config{Level: LevelWarn, Output: &buf})

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %s", buf.String())
	}
	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn should be written")
	}
}

func TestWithRequestIDGeneratesID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestIDFromContext(ctx) == "" {
		t.Error("expected a generated request id")
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	nop := NewNop()
	ctx := WithLogger(context.Background(), nop)
	if FromContext(ctx) != nop {
		t.Error("expected logger stored in context")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected default logger")
	}
}

func TestTriggerAndDurationFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(Config{Level: LevelDebug, Output: &buf})

	ctx := WithTrigger(WithUserID(context.Background(), "user-2"), TriggerEntry)
	l.WithContext(ctx).Debug("insights generated", Duration("duration", 1500*time.Millisecond), InsightID("ins-1"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["trigger"] != TriggerEntry {
		t.Errorf("trigger = %v", line["trigger"])
	}
	if line["user_id"] != "user-2" {
		t.Errorf("user_id = %v", line["user_id"])
	}
	if line["duration"] != "1.5s" {
		t.Errorf("duration = %v, want 1.5s", line["duration"])
	}
	if line["insight_id"] != "ins-1" {
		t.Errorf("insight_id = %v", line["insight_id"])
	}
}

func TestWithContextWithoutValuesReturnsSameLogger(t *testing.T) {
	l := NewNop()
	if l.WithContext(context.Background()) != l {
		t.Error("expected the receiver when ctx carries no fields")
	}
}
