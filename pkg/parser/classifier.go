// Package parser turns a raw Klipper host log into the typed records
// defined in pkg/types: stats samples, MCU configuration records,
// deduplicated error events, and communication counters.
//
// Classification and extraction are modeled as an ordered set of
// independent rules rather than a single grammar; each rule owns its own
// tolerance for missing or malformed subfields, so failures stay local to
// the token or line that caused them.
package parser

import (
	"regexp"
	"strings"

	"github.com/supporttools/klipper-doctor/pkg/types"
)

// Line shape patterns. The marker patterns are deliberately loose: they
// decide only which extractor owns the line. The extractors re-match with
// strict patterns and report their own failures, so a mangled stats line
// still surfaces as a parse failure instead of silently becoming an
// unrecognized line.
var (
	statsMarkerRe    = regexp.MustCompile(`^Stats [^:]*:`)
	mcuLoadMarkerRe  = regexp.MustCompile(`^Loaded MCU\b`)
	mcuConfigRe      = regexp.MustCompile(`^MCU '([^']+)' config: (.*)$`)
	mcuConfiguredRe  = regexp.MustCompile(`^Configured MCU '([^']+)' \((\d+) moves\)`)
	commDumpMarkerRe = regexp.MustCompile(`^Dumping (?:serial|receive) stats\b`)
	shutdownPrefixRe = regexp.MustCompile(`^Transition to shutdown state:`)
)

// Classify assigns a raw line to exactly one LineKind. Matching is ordered
// and first-match-wins: stats lines are checked before the generic error
// keyword rules, so a stats line that mentions "error" inside a metric
// name (rx_error, heater_error_margin) never classifies as an error line.
func Classify(line types.RawLine) types.LineKind {
	text := line.Text

	switch {
	case statsMarkerRe.MatchString(text):
		return types.LineKindStats
	case mcuLoadMarkerRe.MatchString(text):
		return types.LineKindMcuLoad
	case mcuConfigRe.MatchString(text), mcuConfiguredRe.MatchString(text):
		return types.LineKindMcuConfig
	case commDumpMarkerRe.MatchString(text):
		return types.LineKindCommStat
	}

	lower := strings.ToLower(text)
	switch {
	case shutdownPrefixRe.MatchString(text), strings.Contains(lower, "firmware shutdown"):
		return types.LineKindShutdown
	case strings.Contains(lower, "traceback"), strings.Contains(lower, "exception"):
		return types.LineKindException
	case strings.Contains(lower, "error"), strings.Contains(lower, "failed"):
		return types.LineKindError
	case strings.Contains(lower, "warning"):
		return types.LineKindWarning
	}

	return types.LineKindUnrecognized
}
