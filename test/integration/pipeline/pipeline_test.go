package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/supporttools/klipper-doctor/pkg/analyzer"
	"github.com/supporttools/klipper-doctor/pkg/exporters"
	"github.com/supporttools/klipper-doctor/pkg/parser"
	"github.com/supporttools/klipper-doctor/pkg/report"
	"github.com/supporttools/klipper-doctor/pkg/types"
	"github.com/supporttools/klipper-doctor/test"
)

func thresholds(t *testing.T) types.ThresholdConfig {
	t.Helper()
	cfg := &types.Config{}
	test.AssertNoError(t, cfg.ApplyDefaults(), "applying defaults")
	return cfg.Thresholds
}

// TestFullPipelineHealthyPrint runs file analysis, aggregation, report
// synthesis, and export over a clean printing session.
func TestFullPipelineHealthyPrint(t *testing.T) {
	fixture := test.NewLogFixture().
		WithStartup().
		WithMcu("mcu", "v0.12.0-95-g1234abcd", 91, 1024)
	for i := 0; i < 10; i++ {
		fixture.WithStats(float64(100+i), 0.4, 250000, 210.0)
	}
	logPath := test.WriteTempLog(t, fixture)

	result, err := parser.AnalyzeFile(logPath)
	test.AssertNoError(t, err, "analyzing log")

	assessment := analyzer.Aggregate(result, thresholds(t))
	if len(assessment.Findings) != 0 {
		t.Errorf("healthy session produced findings: %+v", assessment.Findings)
	}

	rpt := report.Synthesize(result, assessment)
	text := rpt.Render()
	if !strings.Contains(text, "No errors detected") {
		t.Error("report should state no errors were detected")
	}
	if !strings.Contains(text, "System appears healthy") {
		t.Error("report should carry the healthy recommendation")
	}

	outDir := filepath.Join(t.TempDir(), "out")
	test.AssertNoError(t, exporters.ExportAll(outDir, result, assessment, rpt), "exporting")
	entries, err := os.ReadDir(outDir)
	test.AssertNoError(t, err, "reading output dir")
	if len(entries) != 6 {
		t.Errorf("expected 6 output files, got %d", len(entries))
	}
}

// TestFullPipelineTroubledPrint runs the pipeline over a session with
// load, communication and shutdown problems and checks each surfaces.
func TestFullPipelineTroubledPrint(t *testing.T) {
	fixture := test.NewLogFixture().
		WithStartup().
		WithMcu("mcu", "v0.12.0", 91, 1024).
		WithStats(100.0, 1.4, 250000, 210.0).
		WithCommErrors(101.0, 5, 1).
		WithStats(102.0, 1.3, 80000, 210.0).
		WithError("Got serial error during read: lost 23 bytes", 12).
		WithShutdown("Timer too close")
	logPath := test.WriteTempLog(t, fixture)

	result, err := parser.AnalyzeFile(logPath)
	test.AssertNoError(t, err, "analyzing log")

	assessment := analyzer.Aggregate(result, thresholds(t))

	categories := map[string]bool{}
	for _, f := range assessment.Findings {
		categories[f.Category] = true
	}
	for _, want := range []string{
		analyzer.FindingPerformance,
		analyzer.FindingMemory,
		analyzer.FindingCommunication,
		analyzer.FindingErrors,
	} {
		if !categories[want] {
			t.Errorf("expected a %s finding, got %+v", want, assessment.Findings)
		}
	}

	rpt := report.Synthesize(result, assessment)
	if len(rpt.Recommendations) == 0 ||
		rpt.Recommendations[0] == "System appears healthy; no immediate concerns" {
		t.Errorf("troubled session should produce advice, got %+v", rpt.Recommendations)
	}

	// The raw error lines beat the volume threshold through dedup.
	if rpt.ErrorAnalysis.TotalLines != 13 {
		t.Errorf("error lines = %d, want 13", rpt.ErrorAnalysis.TotalLines)
	}
}

// TestPipelineMatchesReaderAnalysis verifies file-based and reader-based
// analysis agree on the same content.
func TestPipelineMatchesReaderAnalysis(t *testing.T) {
	fixture := test.NewLogFixture().
		WithMcu("mcu", "v0.12.0", 91, 1024).
		WithStats(10.0, 0.4, 250000, 205.0).
		WithStats(11.0, 0.5, 249000, 206.0)
	logPath := test.WriteTempLog(t, fixture)

	fromFile, err := parser.AnalyzeFile(logPath)
	test.AssertNoError(t, err, "analyzing file")
	fromReader, err := parser.Analyze(strings.NewReader(fixture.String()))
	test.AssertNoError(t, err, "analyzing reader")

	if len(fromFile.Samples) != len(fromReader.Samples) ||
		len(fromFile.McuRecords) != len(fromReader.McuRecords) {
		t.Error("file and reader analysis disagree")
	}
}
