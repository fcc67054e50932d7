package parser

import (
	"testing"

	"github.com/supporttools/klipper-doctor/pkg/types"
)

// TestNormalizeMessage verifies standalone numeric tokens fold while
// digits embedded in identifiers survive.
func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"standalone integer",
			"Timer too close: lost 57 bytes",
			"Timer too close: lost N bytes",
		},
		{
			"standalone decimal",
			"clock skew of 12.5 detected",
			"clock skew of N detected",
		},
		{
			"identifier digits preserved",
			"stm32f446 on mcu2 reset",
			"stm32f446 on mcu2 reset",
		},
		{
			"mixed",
			"mcu2 dropped 3 packets in 1.5s",
			"mcu2 dropped N packets in 1.5s",
		},
		{
			"trailing punctuation",
			"retry count 5, giving up",
			"retry count N, giving up",
		},
		{
			"no digits",
			"connection reset by peer",
			"connection reset by peer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMessage(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeMessage(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestCategorize verifies the category assignment rules, including the
// cross-cutting communication category.
func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		kind     types.LineKind
		text     string
		expected types.ErrorCategory
	}{
		{
			"shutdown always shutdown",
			types.LineKindShutdown,
			"Transition to shutdown state: serial retransmit overflow",
			types.CategoryShutdown,
		},
		{
			"comm phrase beats error kind",
			types.LineKindError,
			"Serial connection error on /dev/ttyAMA0",
			types.CategoryCommError,
		},
		{
			"comm phrase beats warning kind",
			types.LineKindWarning,
			"Warning: retransmit rate climbing",
			types.CategoryCommError,
		},
		{
			"plain error",
			types.LineKindError,
			"Internal error on command G28",
			types.CategoryError,
		},
		{
			"plain warning",
			types.LineKindWarning,
			"Warning: bed mesh out of range",
			types.CategoryWarning,
		},
		{
			"exception",
			types.LineKindException,
			"Unhandled exception during homing",
			types.CategoryException,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.kind, tt.text)
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestErrorClassifierDedup verifies two lines differing only in an
// embedded numeric value fold into one event with a count, while a line
// with a different identifier stays separate.
func TestErrorClassifierDedup(t *testing.T) {
	c := NewErrorClassifier()

	lines := []string{
		"Read error: lost 3 bytes",
		"Read error: lost 57 bytes",
		"Read error on mcu2: lost 4 bytes",
	}
	for i, text := range lines {
		line := types.RawLine{LineNumber: i + 1, Text: text}
		c.Observe(Classify(line), line, nil)
	}

	events := c.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 deduplicated events, got %d: %+v", len(events), events)
	}

	first := events[0]
	if first.Count != 2 {
		t.Errorf("expected count 2 for folded event, got %d", first.Count)
	}
	if first.Message != "Read error: lost 3 bytes" {
		t.Errorf("expected first-seen representative message, got %q", first.Message)
	}
	if first.LineNumber != 1 {
		t.Errorf("expected first occurrence line 1, got %d", first.LineNumber)
	}

	if events[1].Count != 1 {
		t.Errorf("expected count 1 for distinct event, got %d", events[1].Count)
	}

	// Counts sum to the raw line total.
	total := 0
	for _, e := range events {
		total += e.Count
	}
	if total != len(lines) {
		t.Errorf("counts sum to %d, want %d", total, len(lines))
	}
}

// TestErrorClassifierCategorySplit verifies identical text under
// different categories stays separate.
func TestErrorClassifierCategorySplit(t *testing.T) {
	c := NewErrorClassifier()

	c.Observe(types.LineKindError, types.RawLine{LineNumber: 1, Text: "probe failed"}, nil)
	c.Observe(types.LineKindWarning, types.RawLine{LineNumber: 2, Text: "probe failed"}, nil)

	events := c.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}
