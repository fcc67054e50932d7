package report

import (
	"fmt"

	"github.com/supporttools/klipper-doctor/pkg/analyzer"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

// healthyRecommendation is emitted when no finding warrants advice.
const healthyRecommendation = "System appears healthy; no immediate concerns"

// recommendationTemplates maps finding category+severity to advice. The
// finding's message, which carries the concrete numeric evidence, is
// interpolated into the template; there is no free-form generation, so
// output stays reproducible and testable.
var recommendationTemplates = map[string]string{
	key(analyzer.FindingPerformance, types.SeverityWarning):   "Consider reducing print complexity or upgrading the host hardware (%s)",
	key(analyzer.FindingMemory, types.SeverityWarning):        "Monitor memory usage and consider closing unnecessary host processes (%s)",
	key(analyzer.FindingTemperature, types.SeverityCritical):  "Verify heater limits, thermistor placement and part cooling (%s)",
	key(analyzer.FindingCommunication, types.SeverityWarning): "Check cables and connectors between the host and MCU (%s)",
	key(analyzer.FindingErrors, types.SeverityWarning):        "Review the printer configuration; the log is error-heavy (%s)",
	key(analyzer.FindingErrors, types.SeverityCritical):       "Investigate firmware shutdowns and host exceptions before the next print (%s)",
}

func key(category string, severity types.Severity) string {
	return category + "/" + string(severity)
}

// recommend maps findings to recommendations. Info findings carry no
// advice; a run with nothing actionable gets the healthy line so the
// section is never empty.
func recommend(findings []types.Finding) []string {
	var recs []string
	seen := map[string]bool{}

	for _, f := range findings {
		template, ok := recommendationTemplates[key(f.Category, f.Severity)]
		if !ok {
			continue
		}
		rec := fmt.Sprintf(template, f.Message)
		if seen[rec] {
			continue
		}
		seen[rec] = true
		recs = append(recs, rec)
	}

	if len(recs) == 0 {
		recs = append(recs, healthyRecommendation)
	}
	return recs
}
