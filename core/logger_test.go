package core

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestDefaultLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLoggerWith(log.New(&buf, "", 0), LevelInfo)

	l.Debug("hidden")
	l.Info("fiber created", F("fiber_id", int64(7)), F("scheduler", "demo"))
	l.Error("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "[INFO] fiber created {fiber_id: 7, scheduler: demo}" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if lines[1] != "[ERROR] plain" {
		t.Fatalf("unexpected line %q", lines[1])
	}
}

func TestDefaultLogger_WiredIntoScheduler(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(&SchedulerConfig{
		Logger: NewDefaultLoggerWith(log.New(&buf, "", 0), LevelWarn),
	})

	if err := s.Yield(); err == nil {
		t.Fatal("Yield outside a fiber should fail")
	}
	if !strings.Contains(buf.String(), "[WARN] yield called outside a fiber") {
		t.Fatalf("missing warning, got %q", buf.String())
	}
}
