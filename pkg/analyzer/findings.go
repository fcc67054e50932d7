package analyzer

import (
	"fmt"

	"github.com/supporttools/klipper-doctor/pkg/types"
)

// Finding categories, in the fixed order findings are emitted.
const (
	FindingPerformance   = "performance"
	FindingMemory        = "memory"
	FindingTemperature   = "temperature"
	FindingCommunication = "communication"
	FindingErrors        = "errors"
)

// errorCategoryOrder fixes the emission order of per-category error
// findings, independent of input order.
var errorCategoryOrder = []types.ErrorCategory{
	types.CategoryShutdown,
	types.CategoryException,
	types.CategoryError,
	types.CategoryCommError,
	types.CategoryWarning,
	types.CategoryOther,
}

// errorCategorySeverity maps an error category to the severity of its
// finding. Shutdowns and exceptions terminate or destabilize prints, so
// they escalate to critical.
var errorCategorySeverity = map[types.ErrorCategory]types.Severity{
	types.CategoryShutdown:  types.SeverityCritical,
	types.CategoryException: types.SeverityCritical,
	types.CategoryError:     types.SeverityWarning,
	types.CategoryCommError: types.SeverityWarning,
	types.CategoryWarning:   types.SeverityWarning,
	types.CategoryOther:     types.SeverityInfo,
}

// deriveFindings applies the threshold rules to the aggregates. Output
// order is fixed (performance, memory, temperature, communication,
// errors) so report content is reproducible for identical input.
func deriveFindings(result *types.AnalysisResult, a *Assessment, thresholds types.ThresholdConfig) []types.Finding {
	var findings []types.Finding

	// Performance: mean or peak load over threshold.
	if load, ok := a.Metrics[MetricSystemLoad]; ok {
		if load.Mean > thresholds.HighLoadMean || load.Max > thresholds.HighLoad {
			findings = append(findings, types.Finding{
				Severity:         types.SeverityWarning,
				Category:         FindingPerformance,
				Message:          fmt.Sprintf("high system load: mean=%.2f max=%.2f (limits mean>%.2f, peak>%.2f)", load.Mean, load.Max, thresholds.HighLoadMean, thresholds.HighLoad),
				SupportingMetric: MetricSystemLoad,
			})
		}
	}

	// Memory: first sample below the floor, referencing its timestamp.
	for _, s := range result.Samples {
		if s.MemoryAvailableKB != nil && *s.MemoryAvailableKB < thresholds.LowMemoryKB {
			findings = append(findings, types.Finding{
				Severity:         types.SeverityWarning,
				Category:         FindingMemory,
				Message:          fmt.Sprintf("low memory: %.0f kB available at t=%.1f (limit %.0f kB)", *s.MemoryAvailableKB, s.Timestamp, thresholds.LowMemoryKB),
				SupportingMetric: MetricMemory,
			})
			break
		}
	}

	// Temperature: any sensor peaking above its class limit.
	for _, sensor := range sortedSensors(a.Temperatures) {
		limit, ok := thresholds.TemperatureLimitFor(sensor)
		if !ok {
			continue
		}
		summary := a.Temperatures[sensor]
		if summary.Max > limit {
			findings = append(findings, types.Finding{
				Severity:         types.SeverityCritical,
				Category:         FindingTemperature,
				Message:          fmt.Sprintf("overheat risk on %s: peak %.1f C exceeds %.1f C limit", sensor, summary.Max, limit),
				SupportingMetric: "temp:" + sensor,
			})
		}
	}

	// Communication: any nonzero link error counter.
	if total := a.TotalRxErrors + a.TotalTxErrors; total > 0 {
		findings = append(findings, types.Finding{
			Severity:         types.SeverityWarning,
			Category:         FindingCommunication,
			Message:          fmt.Sprintf("communication errors detected: %d total (rx=%d tx=%d)", total, a.TotalRxErrors, a.TotalTxErrors),
			SupportingMetric: "rx_error+tx_error",
		})
	}

	// Errors: overall volume first, then one finding per present category.
	if total := result.TotalErrorLines(); total > thresholds.MaxErrorCount {
		findings = append(findings, types.Finding{
			Severity: types.SeverityWarning,
			Category: FindingErrors,
			Message:  fmt.Sprintf("high error count: %d error/warning lines (limit %d)", total, thresholds.MaxErrorCount),
		})
	}

	counts := map[types.ErrorCategory]int{}
	for _, e := range result.Errors {
		counts[e.Category] += e.Count
	}
	for _, category := range errorCategoryOrder {
		count := counts[category]
		if count == 0 {
			continue
		}
		findings = append(findings, types.Finding{
			Severity: errorCategorySeverity[category],
			Category: FindingErrors,
			Message:  fmt.Sprintf("%s: %d occurrence(s)", category, count),
		})
	}

	return findings
}
