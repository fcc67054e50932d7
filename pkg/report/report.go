// Package report synthesizes a structured health report from a parsed log
// and its aggregated assessment. Synthesis is a pure function of its
// inputs and rendering is fully templated, so the same input always
// produces byte-identical output; nothing here reads the clock or any
// other ambient state.
package report

import (
	"fmt"
	"sort"

	"github.com/supporttools/klipper-doctor/pkg/analyzer"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

// recentErrorCount bounds the representative error tail in the report.
const recentErrorCount = 5

// Report is the structured health report document. Collaborators render
// it to text, serialize it to JSON, or serve it over HTTP; the content
// rules live here.
type Report struct {
	// LogPath identifies the analyzed input.
	LogPath string `json:"logPath"`

	// MCUs summarizes each microcontroller announced in the log.
	MCUs []McuSection `json:"mcus"`

	// Performance summarizes runtime and host metrics.
	Performance PerformanceSection `json:"performance"`

	// ErrorAnalysis summarizes the deduplicated error events.
	ErrorAnalysis ErrorSection `json:"errorAnalysis"`

	// Communication summarizes link health.
	Communication CommSection `json:"communication"`

	// Temperatures summarizes each sensor, in name order.
	Temperatures []TemperatureSection `json:"temperatures"`

	// Quality reports how much of the input was interpretable.
	Quality types.DataQuality `json:"quality"`

	// Findings are the aggregator's threshold conclusions.
	Findings []types.Finding `json:"findings"`

	// Recommendations are derived from the findings by a fixed template
	// mapping, one per warning or critical finding.
	Recommendations []string `json:"recommendations"`
}

// McuSection is the report view of one MCU record.
type McuSection struct {
	McuID           string `json:"mcuId"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	CommandsLoaded  int    `json:"commandsLoaded"`
	MovesConfigured *int   `json:"movesConfigured,omitempty"`
	ConfigFieldsSet int    `json:"configFieldsSet"`
}

// PerformanceSection carries the headline performance figures.
type PerformanceSection struct {
	RuntimeSeconds float64                        `json:"runtimeSeconds"`
	StatsFrequency float64                        `json:"statsFrequency"`
	SampleCount    int                            `json:"sampleCount"`
	Metrics        map[string]types.MetricSummary `json:"metrics"`
}

// ErrorSection summarizes error events by category with a short tail of
// representative messages.
type ErrorSection struct {
	TotalLines     int                         `json:"totalLines"`
	CategoryCounts map[types.ErrorCategory]int `json:"categoryCounts"`
	Recent         []string                    `json:"recent"`
}

// CommSection summarizes link health.
type CommSection struct {
	TotalRxErrors int  `json:"totalRxErrors"`
	TotalTxErrors int  `json:"totalTxErrors"`
	SampleCount   int  `json:"sampleCount"`
	Healthy       bool `json:"healthy"`
}

// TemperatureSection is the report view of one sensor's series.
type TemperatureSection struct {
	Sensor  string              `json:"sensor"`
	Summary types.MetricSummary `json:"summary"`
}

// Synthesize builds the report document from a parsed log and its
// assessment.
func Synthesize(result *types.AnalysisResult, assessment *analyzer.Assessment) *Report {
	r := &Report{
		LogPath:  result.LogPath,
		Quality:  result.Quality,
		Findings: assessment.Findings,
	}

	for _, mcu := range result.McuRecords {
		r.MCUs = append(r.MCUs, McuSection{
			McuID:           mcu.McuID,
			FirmwareVersion: mcu.FirmwareVersion,
			CommandsLoaded:  mcu.CommandsLoaded,
			MovesConfigured: mcu.MovesConfigured,
			ConfigFieldsSet: len(mcu.ConfigFields),
		})
	}

	r.Performance = PerformanceSection{
		RuntimeSeconds: assessment.Runtime,
		StatsFrequency: assessment.StatsFrequency,
		SampleCount:    len(result.Samples),
		Metrics:        assessment.Metrics,
	}

	r.ErrorAnalysis = ErrorSection{
		TotalLines:     result.TotalErrorLines(),
		CategoryCounts: map[types.ErrorCategory]int{},
	}
	for _, e := range result.Errors {
		r.ErrorAnalysis.CategoryCounts[e.Category] += e.Count
	}
	start := len(result.Errors) - recentErrorCount
	if start < 0 {
		start = 0
	}
	for _, e := range result.Errors[start:] {
		r.ErrorAnalysis.Recent = append(r.ErrorAnalysis.Recent,
			fmt.Sprintf("line %d [%s] (x%d) %s", e.LineNumber, e.Category, e.Count, truncate(e.Message, 120)))
	}

	r.Communication = CommSection{
		TotalRxErrors: assessment.TotalRxErrors,
		TotalTxErrors: assessment.TotalTxErrors,
		SampleCount:   len(result.CommStats),
		Healthy:       assessment.TotalRxErrors+assessment.TotalTxErrors == 0,
	}

	for _, sensor := range sortedSensorNames(assessment.Temperatures) {
		r.Temperatures = append(r.Temperatures, TemperatureSection{
			Sensor:  sensor,
			Summary: assessment.Temperatures[sensor],
		})
	}

	r.Recommendations = recommend(assessment.Findings)

	return r
}

// truncate shortens a message for the report tail.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// sortedSensorNames returns sensor names in deterministic order.
func sortedSensorNames(temps map[string]types.MetricSummary) []string {
	names := make([]string, 0, len(temps))
	for name := range temps {
		names = append(names, name)
	}
	// Keep report ordering identical to the aggregator's.
	sort.Strings(names)
	return names
}
