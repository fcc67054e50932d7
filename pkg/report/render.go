package report

import (
	"fmt"
	"strings"
)

// Render formats the report as plain text. The output depends only on the
// report content; rendering the same report twice yields byte-identical
// text.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "KLIPPER LOG HEALTH REPORT\n")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(&b, "Log: %s\n", r.LogPath)

	b.WriteString("\nMCU INFORMATION:\n")
	if len(r.MCUs) == 0 {
		b.WriteString("  (no MCU records found)\n")
	}
	for _, mcu := range r.MCUs {
		fmt.Fprintf(&b, "  * %s:\n", mcu.McuID)
		fmt.Fprintf(&b, "    - Commands: %d\n", mcu.CommandsLoaded)
		if mcu.MovesConfigured != nil {
			fmt.Fprintf(&b, "    - Moves: %d\n", *mcu.MovesConfigured)
		} else {
			b.WriteString("    - Moves: N/A\n")
		}
		if mcu.FirmwareVersion != "" {
			fmt.Fprintf(&b, "    - Version: %s\n", truncate(mcu.FirmwareVersion, 60))
		}
	}

	b.WriteString("\nPERFORMANCE SUMMARY:\n")
	fmt.Fprintf(&b, "  * Runtime: %.1f seconds (%d samples)\n", r.Performance.RuntimeSeconds, r.Performance.SampleCount)
	fmt.Fprintf(&b, "  * Stats frequency: %.2f Hz\n", r.Performance.StatsFrequency)
	if load, ok := r.Performance.Metrics["sysload"]; ok {
		fmt.Fprintf(&b, "  * System load: avg=%.2f max=%.2f\n", load.Mean, load.Max)
	}
	if mem, ok := r.Performance.Metrics["memavail"]; ok {
		fmt.Fprintf(&b, "  * Memory: min=%.1f MB avg=%.1f MB\n", mem.Min/1024, mem.Mean/1024)
	}
	if freq, ok := r.Performance.Metrics["freq"]; ok {
		fmt.Fprintf(&b, "  * MCU frequency: avg=%.0f Hz (%s)\n", freq.Mean, freq.Trend())
	}

	b.WriteString("\nERROR ANALYSIS:\n")
	if r.ErrorAnalysis.TotalLines == 0 {
		b.WriteString("  No errors detected\n")
	} else {
		fmt.Fprintf(&b, "  * Total error/warning lines: %d\n", r.ErrorAnalysis.TotalLines)
		for _, category := range []string{"SHUTDOWN", "EXCEPTION", "ERROR", "COMM_ERROR", "WARNING", "OTHER"} {
			for cat, count := range r.ErrorAnalysis.CategoryCounts {
				if string(cat) == category {
					fmt.Fprintf(&b, "  * %s: %d occurrence(s)\n", cat, count)
				}
			}
		}
		if len(r.ErrorAnalysis.Recent) > 0 {
			b.WriteString("  Recent errors:\n")
			for _, msg := range r.ErrorAnalysis.Recent {
				fmt.Fprintf(&b, "    %s\n", msg)
			}
		}
	}

	b.WriteString("\nCOMMUNICATION HEALTH:\n")
	if r.Communication.SampleCount == 0 {
		b.WriteString("  (no communication telemetry present)\n")
	} else {
		fmt.Fprintf(&b, "  * RX errors: %d\n", r.Communication.TotalRxErrors)
		fmt.Fprintf(&b, "  * TX errors: %d\n", r.Communication.TotalTxErrors)
		if r.Communication.Healthy {
			b.WriteString("  No communication errors\n")
		} else {
			b.WriteString("  Communication errors detected\n")
		}
	}

	b.WriteString("\nTEMPERATURE ANALYSIS:\n")
	if len(r.Temperatures) == 0 {
		b.WriteString("  (no temperature sensors found)\n")
	}
	for _, t := range r.Temperatures {
		fmt.Fprintf(&b, "  * %s: min=%.1f C max=%.1f C avg=%.1f C stddev=%.2f\n",
			t.Sensor, t.Summary.Min, t.Summary.Max, t.Summary.Mean, t.Summary.StdDev)
	}

	b.WriteString("\nDATA QUALITY:\n")
	fmt.Fprintf(&b, "  * Lines: %d total, %d stats, %d unrecognized (%.1f%%)\n",
		r.Quality.TotalLines, r.Quality.StatsLines, r.Quality.UnrecognizedLines,
		r.Quality.UnrecognizedFraction()*100)
	if len(r.Quality.ParseFailures) > 0 {
		fmt.Fprintf(&b, "  * Parse failures: %d\n", len(r.Quality.ParseFailures))
	}
	if r.Quality.MalformedTokens > 0 {
		fmt.Fprintf(&b, "  * Malformed tokens skipped: %d\n", r.Quality.MalformedTokens)
	}
	if r.Quality.OutOfOrderSamples > 0 {
		fmt.Fprintf(&b, "  * Out-of-order samples: %d\n", r.Quality.OutOfOrderSamples)
	}
	if r.Quality.IncompleteMcuBlocks > 0 {
		fmt.Fprintf(&b, "  * Incomplete MCU blocks discarded: %d\n", r.Quality.IncompleteMcuBlocks)
	}

	b.WriteString("\nFINDINGS:\n")
	if len(r.Findings) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, f := range r.Findings {
		fmt.Fprintf(&b, "  [%s] %s: %s\n", f.Severity, f.Category, f.Message)
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
	}

	return b.String()
}
