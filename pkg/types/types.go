// Package types defines the core data model for Klipper Doctor.
// It contains the typed records produced by the log parser, the metric
// summaries produced by the aggregator, and the Finding type that carries
// threshold conclusions into the report.
package types

// LineKind identifies the class a raw log line was matched into.
// Classification is ordered and first-match-wins; see pkg/parser.
type LineKind string

const (
	// LineKindStats is a periodic "Stats <time>:" telemetry line.
	LineKindStats LineKind = "Stats"

	// LineKindMcuLoad is a "Loaded MCU ..." identification line that opens
	// an MCU configuration block.
	LineKindMcuLoad LineKind = "McuLoad"

	// LineKindMcuConfig is a configuration line inside an MCU block
	// ("MCU 'x' config: ..." or "Configured MCU 'x' (...)").
	LineKindMcuConfig LineKind = "McuConfig"

	// LineKindCommStat is a standalone communication counter dump
	// ("Dumping serial stats: ...").
	LineKindCommStat LineKind = "CommStat"

	// LineKindShutdown is a firmware shutdown reason line.
	LineKindShutdown LineKind = "Shutdown"

	// LineKindException is a host exception or traceback line.
	LineKindException LineKind = "Exception"

	// LineKindError is a generic error line.
	LineKindError LineKind = "Error"

	// LineKindWarning is a generic warning line.
	LineKindWarning LineKind = "Warning"

	// LineKindUnrecognized is any line no pattern matched. These are
	// counted as a data-quality signal, never processed further.
	LineKindUnrecognized LineKind = "Unrecognized"
)

// RawLine is a single line of the input log, before classification.
type RawLine struct {
	// LineNumber is the 1-based position in the input file.
	LineNumber int

	// Text is the line content with surrounding whitespace trimmed.
	Text string
}

// TempReading is one sensor observation from a stats line.
type TempReading struct {
	// Actual is the measured temperature in degrees Celsius.
	Actual float64

	// Target is the commanded temperature, if the sensor reports one.
	// Nil means the sensor has no target (e.g. a passive ambient probe).
	Target *float64

	// Power is the heater PWM duty cycle, if reported.
	Power *float64
}

// StatsSample is one decoded "Stats" line. Fields that did not appear on
// the line are nil; zero is a legitimate value for every metric here, so
// missing and zero are never conflated.
type StatsSample struct {
	// Timestamp is the host clock reading, in seconds. Always present;
	// a stats line without a timestamp is a parse failure, not a sample.
	Timestamp float64

	// LineNumber is where the sample appeared in the input file.
	LineNumber int

	// SystemLoad is the host load average (sysload / load key).
	SystemLoad *float64

	// CPUTime is the accumulated host process CPU time in seconds.
	CPUTime *float64

	// MemoryAvailableKB is the available host memory in kilobytes
	// (memavail / mem key).
	MemoryAvailableKB *float64

	// McuFrequencyHz is the measured MCU clock frequency (freq key).
	McuFrequencyHz *float64

	// Temperatures holds one reading per sensor named on the line. The
	// sensor set is open-ended and discovered at parse time.
	Temperatures map[string]TempReading

	// OutOfOrder is set when this sample's timestamp regressed relative
	// to the previous sample. The sample is retained; aggregates are
	// order-independent.
	OutOfOrder bool
}

// McuRecord describes one microcontroller announced in the log. Records
// are built incrementally while an MCU configuration block is open and
// finalized when the block closes; a record is never emitted without an id.
type McuRecord struct {
	// McuID is the name the host uses for this MCU (e.g. "mcu", "EBBCan").
	McuID string

	// FirmwareVersion is the version string from the load line, if present.
	FirmwareVersion string

	// CommandsLoaded is the command count from the load line.
	CommandsLoaded int

	// MovesConfigured is the move queue size from the "Configured MCU"
	// line. Nil when the block ended before configuration completed.
	MovesConfigured *int

	// ConfigFields holds the key=value pairs from "MCU 'x' config:" lines.
	ConfigFields map[string]string

	// LineNumber is where the load line appeared.
	LineNumber int
}

// ErrorCategory classifies an error or warning line.
type ErrorCategory string

const (
	CategoryWarning   ErrorCategory = "WARNING"
	CategoryError     ErrorCategory = "ERROR"
	CategoryException ErrorCategory = "EXCEPTION"
	CategoryShutdown  ErrorCategory = "SHUTDOWN"
	CategoryCommError ErrorCategory = "COMM_ERROR"
	CategoryOther     ErrorCategory = "OTHER"
)

// ErrorEvent is one deduplicated error/warning occurrence group. Two raw
// lines that normalize to the same message under the same category share
// one event with Count incremented.
type ErrorEvent struct {
	// Timestamp of the first occurrence, when one could be associated.
	Timestamp *float64

	// Category is the assigned error taxonomy bucket.
	Category ErrorCategory

	// Message is the representative (first seen) raw message.
	Message string

	// NormalizedMessage is the deduplication form of Message, with
	// standalone numeric tokens replaced.
	NormalizedMessage string

	// LineNumber of the first occurrence.
	LineNumber int

	// Count is the number of raw lines folded into this event. Always >= 1.
	Count int
}

// CommunicationStat carries the host<->MCU link counters present on one
// stats line or counter dump. The series is sparse: a stats line with no
// communication fields emits nothing rather than a zero-filled entry.
type CommunicationStat struct {
	// Timestamp matches the source stats line. Dump lines that carry no
	// timestamp inherit the most recent sample's timestamp.
	Timestamp float64

	// LineNumber of the source line.
	LineNumber int

	// RxErrors and TxErrors are cumulative link error counters.
	RxErrors int
	TxErrors int

	// BytesSent / BytesReceived are cumulative transfer counters
	// (bytes_write / bytes_read), when reported.
	BytesSent     *int64
	BytesReceived *int64

	// Retransmits is the cumulative retransmit counter, when reported.
	Retransmits *int64
}

// Severity grades a Finding.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// Finding is a derived, severity-tagged conclusion about the log, backed
// by specific aggregate evidence. Findings are produced in a fixed
// category order so report output is deterministic.
type Finding struct {
	// Severity indicates how serious the finding is.
	Severity Severity

	// Category groups the finding (performance, memory, temperature,
	// communication, errors).
	Category string

	// Message is the human-readable conclusion with concrete numbers.
	Message string

	// SupportingMetric names the metric series backing the finding, when
	// one applies (e.g. "sysload", "memavail", "temp:extruder").
	SupportingMetric string
}

// ParseFailure records a line that could not be interpreted at all.
type ParseFailure struct {
	// LineNumber of the failed line.
	LineNumber int

	// Reason describes why parsing failed.
	Reason string
}

// DataQuality summarizes how much of the input the parser could interpret.
// It is reported alongside the analysis so a thin result is never mistaken
// for a clean one.
type DataQuality struct {
	// TotalLines is the number of non-blank input lines.
	TotalLines int

	// StatsLines is the number of lines classified as stats samples.
	StatsLines int

	// UnrecognizedLines counts lines no classification rule matched.
	UnrecognizedLines int

	// MalformedTokens counts individual stats tokens skipped for
	// unparsable values. A bad token never fails its whole line.
	MalformedTokens int

	// OutOfOrderSamples counts timestamp regressions in the stats series.
	OutOfOrderSamples int

	// IncompleteMcuBlocks counts MCU blocks discarded at end of input
	// because no id was ever seen.
	IncompleteMcuBlocks int

	// ParseFailures lists lines that produced no record at all.
	ParseFailures []ParseFailure
}

// UnrecognizedFraction returns the share of non-blank lines that matched
// no classification rule.
func (dq DataQuality) UnrecognizedFraction() float64 {
	if dq.TotalLines == 0 {
		return 0
	}
	return float64(dq.UnrecognizedLines) / float64(dq.TotalLines)
}

// AnalysisResult is the complete in-memory output of one parsing pass over
// a log file. Every collection is owned by the run that produced it;
// nothing is shared across runs.
type AnalysisResult struct {
	// LogPath is the input file the result was parsed from.
	LogPath string

	// Samples is the ordered stats sample series (file order, which is
	// timestamp order except for flagged regressions).
	Samples []StatsSample

	// McuRecords lists the MCUs announced in the log, in order of
	// appearance.
	McuRecords []McuRecord

	// Errors is the deduplicated error/warning event set, ordered by
	// first occurrence.
	Errors []ErrorEvent

	// CommStats is the sparse communication counter series.
	CommStats []CommunicationStat

	// Quality reports how much of the input was interpretable.
	Quality DataQuality
}

// TotalErrorLines returns the number of raw error/warning lines behind the
// deduplicated event set.
func (r *AnalysisResult) TotalErrorLines() int {
	total := 0
	for _, e := range r.Errors {
		total += e.Count
	}
	return total
}

// MetricSummary holds order-independent aggregate statistics for one
// numeric metric series, computed over present values only.
type MetricSummary struct {
	// Count is the number of samples where the metric was present.
	Count int

	// Min, Max and Mean are over present values.
	Min  float64
	Max  float64
	Mean float64

	// StdDev is the population standard deviation; zero when Count < 2.
	StdDev float64

	// First and Last are the series endpoints in file order, used for
	// trend reporting.
	First float64
	Last  float64
}

// Trend reports whether the series ended above, below, or level with where
// it started.
func (m MetricSummary) Trend() string {
	switch {
	case m.Count < 2:
		return "stable"
	case m.Last > m.First:
		return "increasing"
	case m.Last < m.First:
		return "decreasing"
	default:
		return "stable"
	}
}
