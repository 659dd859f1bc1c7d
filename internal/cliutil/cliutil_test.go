package cliutil

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFormatBytesHumanizes(t *testing.T) {
	if got := FormatBytes(0); got != "0 B" {
		t.Fatalf("unexpected zero-byte format: %q", got)
	}
	if got := FormatBytes(1024); got == "" {
		t.Fatal("expected non-empty formatted string")
	}
	if got := FormatBytes(4_200_000); !strings.Contains(got, "MB") {
		t.Fatalf("expected MB unit in %q", got)
	}
}

func TestNewRunIDProducesValidUUID(t *testing.T) {
	id := NewRunID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected valid uuid, got %q: %v", id, err)
	}
	if NewRunID() == id {
		t.Fatal("expected distinct run ids across calls")
	}
}

func TestFormatTimestampMatchesLayout(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)
	got := FormatTimestamp(ts)
	want := "2026-07-30 14:05:09"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSummaryLineContainsExpectedFields(t *testing.T) {
	started := time.Now().Add(-2 * time.Minute)
	line := SummaryLine("run-123", started, 7, 4_200_000)

	if !strings.Contains(line, "run-123") {
		t.Fatalf("expected run id in summary, got %q", line)
	}
	if !strings.Contains(line, "7 maps") {
		t.Fatalf("expected map count in summary, got %q", line)
	}
	if !strings.Contains(line, "MB") {
		t.Fatalf("expected formatted byte count in summary, got %q", line)
	}
}

func TestTerminalWidthFallsBackWhenNotATerminal(t *testing.T) {
	if got := TerminalWidth(); got <= 0 {
		t.Fatalf("expected positive width, got %d", got)
	}
}
