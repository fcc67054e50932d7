package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/supporttools/klipper-doctor/pkg/logger"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

// ErrNoData is returned when the input contains no non-blank lines. An
// empty input is a hard failure so callers never mistake it for a clean,
// problem-free log.
var ErrNoData = errors.New("log contains no data")

// maxLineSize bounds a single log line. Klipper stats lines on hosts with
// many MCUs run long but stay well under this.
const maxLineSize = 1024 * 1024

// AnalyzeFile parses the log at path and returns the complete analysis
// result. The file is consumed once, in order; the whole pass is
// single-threaded and deterministic.
func AnalyzeFile(path string) (*types.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer f.Close()

	result, err := Analyze(f)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", path, err)
	}
	result.LogPath = path
	return result, nil
}

// Analyze parses a complete log from r. Lines are classified in file
// order, which both the MCU block tracker and out-of-order timestamp
// detection depend on. No condition short of an unreadable or empty input
// fails the run; unparsable content is counted in the result's
// data-quality statistics instead.
func Analyze(r io.Reader) (*types.AnalysisResult, error) {
	result := &types.AnalysisResult{}
	tracker := NewMcuConfigTracker()
	errClassifier := NewErrorClassifier()

	var lastTimestamp *float64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		line := types.RawLine{LineNumber: lineNumber, Text: text}
		result.Quality.TotalLines++

		kind := Classify(line)
		tracker.Observe(kind, line)

		switch kind {
		case types.LineKindStats:
			sample, sections, malformed, err := parseStatsSections(line)
			result.Quality.MalformedTokens += malformed
			if err != nil {
				result.Quality.ParseFailures = append(result.Quality.ParseFailures, types.ParseFailure{
					LineNumber: line.LineNumber,
					Reason:     err.Error(),
				})
				logger.WithField("line", line.LineNumber).Debugf("stats parse failure: %v", err)
				continue
			}

			result.Quality.StatsLines++
			if lastTimestamp != nil && sample.Timestamp < *lastTimestamp {
				sample.OutOfOrder = true
				result.Quality.OutOfOrderSamples++
				logger.WithFields(map[string]interface{}{
					"line":      line.LineNumber,
					"timestamp": sample.Timestamp,
				}).Warn("stats sample out of order, retaining")
			}
			ts := sample.Timestamp
			lastTimestamp = &ts
			result.Samples = append(result.Samples, *sample)

			// The same token stream feeds the communication series.
			if comm := extractCommStat(sections, sample.Timestamp, line.LineNumber); comm != nil {
				result.CommStats = append(result.CommStats, *comm)
			}

		case types.LineKindCommStat:
			last := 0.0
			if lastTimestamp != nil {
				last = *lastTimestamp
			}
			if comm := ParseCommDump(line, last); comm != nil {
				result.CommStats = append(result.CommStats, *comm)
			}

		case types.LineKindShutdown, types.LineKindException, types.LineKindError, types.LineKindWarning:
			errClassifier.Observe(kind, line, lastTimestamp)

		case types.LineKindUnrecognized:
			result.Quality.UnrecognizedLines++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading log: %w", err)
	}

	if result.Quality.TotalLines == 0 {
		return nil, ErrNoData
	}

	result.McuRecords, result.Quality.IncompleteMcuBlocks = tracker.Finish()
	result.Errors = errClassifier.Events()

	logger.WithFields(map[string]interface{}{
		"lines":        result.Quality.TotalLines,
		"samples":      len(result.Samples),
		"mcus":         len(result.McuRecords),
		"errors":       len(result.Errors),
		"unrecognized": result.Quality.UnrecognizedLines,
	}).Info("log parsed")

	return result, nil
}
