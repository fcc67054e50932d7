package parser

import (
	"strings"
	"unicode"

	"github.com/supporttools/klipper-doctor/pkg/types"
)

// commErrorPhrases mark a line as a communication failure regardless of
// its raw classification. Communication problems surface under several
// kinds (timeouts log as errors, retry storms as warnings) so the category
// is cross-cutting and checked before the kind fallback.
var commErrorPhrases = []string{
	"timeout with mcu",
	"serial",
	"retransmit",
	"bytes_invalid",
	"communication",
}

// ErrorClassifier maps classified error, warning, exception and shutdown
// lines into deduplicated ErrorEvents. Two lines whose messages differ
// only in standalone numeric values fold into one event with an
// occurrence count.
type ErrorClassifier struct {
	events []*types.ErrorEvent
	index  map[string]*types.ErrorEvent
}

// NewErrorClassifier returns an empty classifier.
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{index: map[string]*types.ErrorEvent{}}
}

// Observe records one error-class line. The timestamp is the most recent
// stats timestamp when one exists; free-text lines carry no clock of
// their own.
func (c *ErrorClassifier) Observe(kind types.LineKind, line types.RawLine, timestamp *float64) {
	category := Categorize(kind, line.Text)
	normalized := NormalizeMessage(line.Text)
	key := string(category) + "\x00" + normalized

	if event, ok := c.index[key]; ok {
		event.Count++
		return
	}

	event := &types.ErrorEvent{
		Timestamp:         timestamp,
		Category:          category,
		Message:           line.Text,
		NormalizedMessage: normalized,
		LineNumber:        line.LineNumber,
		Count:             1,
	}
	c.index[key] = event
	c.events = append(c.events, event)
}

// Events returns the deduplicated event set in first-occurrence order.
func (c *ErrorClassifier) Events() []types.ErrorEvent {
	out := make([]types.ErrorEvent, len(c.events))
	for i, e := range c.events {
		out[i] = *e
	}
	return out
}

// Categorize assigns the error taxonomy bucket for a line. Shutdown lines
// always map to SHUTDOWN; known communication failure phrases map to
// COMM_ERROR before the line's own kind is consulted.
func Categorize(kind types.LineKind, text string) types.ErrorCategory {
	if kind == types.LineKindShutdown {
		return types.CategoryShutdown
	}

	lower := strings.ToLower(text)
	for _, phrase := range commErrorPhrases {
		if strings.Contains(lower, phrase) {
			return types.CategoryCommError
		}
	}

	switch kind {
	case types.LineKindException:
		return types.CategoryException
	case types.LineKindError:
		return types.CategoryError
	case types.LineKindWarning:
		return types.CategoryWarning
	default:
		return types.CategoryOther
	}
}

// NormalizeMessage computes the deduplication form of an error message.
// Standalone numeric tokens (integer or decimal runs not attached to a
// letter or underscore on either side) are replaced with "N", so
// "Timer too close: lost 3 bytes" and "... lost 57 bytes" share one key.
// Digits embedded in identifiers ("mcu2", "stm32f446") are meaningful and
// preserved; a broad numeric strip would conflate distinct error types.
func NormalizeMessage(msg string) string {
	runes := []rune(msg)
	var b strings.Builder
	b.Grow(len(msg))

	for i := 0; i < len(runes); {
		if !unicode.IsDigit(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}

		start := i
		for i < len(runes) {
			if unicode.IsDigit(runes[i]) {
				i++
				continue
			}
			// A dot continues the run only between digits (12.5, not "5.").
			if runes[i] == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
				i++
				continue
			}
			break
		}

		attachedBefore := start > 0 && isWordRune(runes[start-1])
		attachedAfter := i < len(runes) && isWordRune(runes[i])
		if attachedBefore || attachedAfter {
			b.WriteString(string(runes[start:i]))
		} else {
			b.WriteByte('N')
		}
	}

	return b.String()
}

// isWordRune reports whether a rune binds an adjacent digit run into an
// identifier for normalization purposes.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
