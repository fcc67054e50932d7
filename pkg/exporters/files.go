// Package exporters serializes a completed analysis to files. These are
// thin collaborators around the core result bundle: all content decisions
// live in pkg/analyzer and pkg/report, and everything written here is a
// deterministic function of the in-memory result.
package exporters

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/supporttools/klipper-doctor/pkg/analyzer"
	"github.com/supporttools/klipper-doctor/pkg/logger"
	"github.com/supporttools/klipper-doctor/pkg/report"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

// Output file names inside the output directory.
const (
	StatsCSVName        = "klipper_stats_data.csv"
	McuConfigsJSONName  = "klipper_mcu_configs.json"
	ErrorsJSONName      = "klipper_errors.json"
	FindingsJSONName    = "klipper_findings.json"
	PerformanceJSONName = "performance_report.json"
	HealthReportName    = "health_report.txt"
)

// ExportAll writes the standard output set for one analysis into dir.
func ExportAll(dir string, result *types.AnalysisResult, assessment *analyzer.Assessment, rpt *report.Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	if err := WriteStatsCSV(filepath.Join(dir, StatsCSVName), result.Samples); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, McuConfigsJSONName), result.McuRecords); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, ErrorsJSONName), result.Errors); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, FindingsJSONName), assessment.Findings); err != nil {
		return err
	}
	if err := WritePerformanceReport(filepath.Join(dir, PerformanceJSONName), assessment); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, HealthReportName), []byte(rpt.Render()), 0644); err != nil {
		return fmt.Errorf("failed to write health report: %w", err)
	}

	logger.WithField("dir", dir).Info("analysis exported")
	return nil
}

// WriteStatsCSV writes the sample series as CSV. Columns are fixed for
// the known metrics and sorted for the discovered sensors, so the file
// layout is stable across runs. Absent values render as empty cells, not
// zeros.
func WriteStatsCSV(path string, samples []types.StatsSample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	sensors := map[string]bool{}
	for _, s := range samples {
		for name := range s.Temperatures {
			sensors[name] = true
		}
	}
	sensorNames := make([]string, 0, len(sensors))
	for name := range sensors {
		sensorNames = append(sensorNames, name)
	}
	sort.Strings(sensorNames)

	header := []string{"timestamp", "line_number", "sysload", "cputime", "memavail", "freq"}
	for _, name := range sensorNames {
		header = append(header, name+"_temp", name+"_target")
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range samples {
		row := []string{
			formatFloat(s.Timestamp),
			strconv.Itoa(s.LineNumber),
			optFloat(s.SystemLoad),
			optFloat(s.CPUTime),
			optFloat(s.MemoryAvailableKB),
			optFloat(s.McuFrequencyHz),
		}
		for _, name := range sensorNames {
			reading, ok := s.Temperatures[name]
			if !ok {
				row = append(row, "", "")
				continue
			}
			row = append(row, formatFloat(reading.Actual), optFloat(reading.Target))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// PerformanceReport is the JSON shape of the performance export.
type PerformanceReport struct {
	Summary struct {
		RuntimeSeconds    float64 `json:"runtimeSeconds"`
		TotalStatsEntries int     `json:"totalStatsEntries"`
		StatsFrequency    float64 `json:"statsFrequency"`
	} `json:"summary"`
	Metrics      map[string]MetricReport `json:"metrics"`
	Temperatures map[string]MetricReport `json:"temperatures"`
}

// MetricReport is one metric's summary plus its trend.
type MetricReport struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
	Trend  string  `json:"trend"`
}

// WritePerformanceReport writes the aggregate metrics as JSON.
func WritePerformanceReport(path string, assessment *analyzer.Assessment) error {
	var pr PerformanceReport
	pr.Summary.RuntimeSeconds = assessment.Runtime
	pr.Summary.StatsFrequency = assessment.StatsFrequency
	pr.Metrics = map[string]MetricReport{}
	pr.Temperatures = map[string]MetricReport{}

	total := 0
	for name, m := range assessment.Metrics {
		pr.Metrics[name] = toMetricReport(m)
		if m.Count > total {
			total = m.Count
		}
	}
	for name, m := range assessment.Temperatures {
		pr.Temperatures[name] = toMetricReport(m)
		if m.Count > total {
			total = m.Count
		}
	}
	pr.Summary.TotalStatsEntries = total

	return writeJSON(path, pr)
}

func toMetricReport(m types.MetricSummary) MetricReport {
	return MetricReport{
		Count:  m.Count,
		Mean:   m.Mean,
		Min:    m.Min,
		Max:    m.Max,
		StdDev: m.StdDev,
		Trend:  m.Trend(),
	}
}

// ExtractStatsLines copies every stats line from the log at logPath into
// outPath, prefixed with its line number, and returns the number of lines
// extracted.
func ExtractStatsLines(logPath, outPath string) (int, error) {
	in, err := os.Open(logPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer out.Close()

	var lines []string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		text := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(text, "Stats ") {
			lines = append(lines, fmt.Sprintf("Line %d: %s", lineNumber, text))
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed reading log: %w", err)
	}

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "# Klipper stats lines extracted from %s\n", logPath)
	fmt.Fprintf(w, "# Total stats lines found: %d\n\n", len(lines))
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	return len(lines), nil
}

// writeJSON marshals v with indentation and writes it to path.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// formatFloat renders a float the way the stats lines carry them.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// optFloat renders an optional float, empty when absent.
func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
