// Package analyzer computes aggregate statistics over a parsed log and
// derives threshold-triggered Findings from them. All aggregates are
// order-independent, so out-of-order samples flagged by the parser do not
// corrupt min/max/mean; Findings come out in a fixed category order, so
// identical input always produces identical output.
package analyzer

import (
	"math"
	"sort"

	"github.com/supporttools/klipper-doctor/pkg/types"
)

// Metric series names used across the assessment, the report, and the
// Prometheus exporter.
const (
	MetricSystemLoad = "sysload"
	MetricCPUTime    = "cputime"
	MetricMemory     = "memavail"
	MetricFrequency  = "freq"
)

// Assessment is the aggregated view of one parsed log: per-metric
// summaries, per-sensor temperature summaries, communication totals, and
// the derived Findings.
type Assessment struct {
	// Metrics maps the known performance series (sysload, cputime,
	// memavail, freq) to their summaries. Series with no present values
	// are absent, not zeroed.
	Metrics map[string]types.MetricSummary

	// Temperatures maps each discovered sensor to the summary of its
	// actual temperature readings.
	Temperatures map[string]types.MetricSummary

	// TotalRxErrors and TotalTxErrors are the cumulative counter totals
	// over the communication series (the counters are monotonic on the
	// firmware side, so the series maximum is the total).
	TotalRxErrors int
	TotalTxErrors int

	// Runtime is the stats timestamp span in seconds.
	Runtime float64

	// StatsFrequency is samples per second over the runtime.
	StatsFrequency float64

	// Findings are the threshold conclusions, in fixed category order:
	// performance, memory, temperature, communication, errors.
	Findings []types.Finding
}

// accumulator builds a MetricSummary incrementally.
type accumulator struct {
	count      int
	min, max   float64
	sum, sumSq float64
	first      float64
	last       float64
}

func (a *accumulator) add(v float64) {
	if a.count == 0 {
		a.min, a.max, a.first = v, v, v
	} else {
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	a.last = v
	a.sum += v
	a.sumSq += v * v
	a.count++
}

func (a *accumulator) summary() types.MetricSummary {
	if a.count == 0 {
		return types.MetricSummary{}
	}
	mean := a.sum / float64(a.count)
	variance := a.sumSq/float64(a.count) - mean*mean
	if variance < 0 {
		variance = 0 // float rounding
	}
	stddev := 0.0
	if a.count > 1 {
		stddev = math.Sqrt(variance)
	}
	return types.MetricSummary{
		Count:  a.count,
		Min:    a.min,
		Max:    a.max,
		Mean:   mean,
		StdDev: stddev,
		First:  a.first,
		Last:   a.last,
	}
}

// Aggregate computes the assessment for a parsed log. The thresholds are
// passed in explicitly rather than read from shared state, so concurrent
// test runs with different limits stay independent and deterministic.
func Aggregate(result *types.AnalysisResult, thresholds types.ThresholdConfig) *Assessment {
	a := &Assessment{
		Metrics:      map[string]types.MetricSummary{},
		Temperatures: map[string]types.MetricSummary{},
	}

	metricAccs := map[string]*accumulator{
		MetricSystemLoad: {},
		MetricCPUTime:    {},
		MetricMemory:     {},
		MetricFrequency:  {},
	}
	tempAccs := map[string]*accumulator{}
	var tsAcc accumulator

	for _, s := range result.Samples {
		tsAcc.add(s.Timestamp)
		if s.SystemLoad != nil {
			metricAccs[MetricSystemLoad].add(*s.SystemLoad)
		}
		if s.CPUTime != nil {
			metricAccs[MetricCPUTime].add(*s.CPUTime)
		}
		if s.MemoryAvailableKB != nil {
			metricAccs[MetricMemory].add(*s.MemoryAvailableKB)
		}
		if s.McuFrequencyHz != nil {
			metricAccs[MetricFrequency].add(*s.McuFrequencyHz)
		}
		for sensor, reading := range s.Temperatures {
			acc, ok := tempAccs[sensor]
			if !ok {
				acc = &accumulator{}
				tempAccs[sensor] = acc
			}
			acc.add(reading.Actual)
		}
	}

	for name, acc := range metricAccs {
		if acc.count > 0 {
			a.Metrics[name] = acc.summary()
		}
	}
	for sensor, acc := range tempAccs {
		a.Temperatures[sensor] = acc.summary()
	}

	if tsAcc.count > 1 {
		a.Runtime = tsAcc.max - tsAcc.min
		if a.Runtime > 0 {
			a.StatsFrequency = float64(tsAcc.count) / a.Runtime
		}
	}

	var rxAcc, txAcc accumulator
	for _, c := range result.CommStats {
		rxAcc.add(float64(c.RxErrors))
		txAcc.add(float64(c.TxErrors))
	}
	if rxAcc.count > 0 {
		a.TotalRxErrors = int(rxAcc.max)
		a.TotalTxErrors = int(txAcc.max)
	}

	a.Findings = deriveFindings(result, a, thresholds)
	return a
}

// sortedSensors returns the sensor names in deterministic order.
func sortedSensors(temps map[string]types.MetricSummary) []string {
	names := make([]string, 0, len(temps))
	for name := range temps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
