package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/supporttools/klipper-doctor/pkg/analyzer"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

// Exporter publishes one completed analysis to a Prometheus registry.
type Exporter struct {
	registry *prometheus.Registry
	metrics  *Metrics
}

// NewExporter creates an exporter with its own registry under the given
// metric namespace.
func NewExporter(namespace string) (*Exporter, error) {
	registry := prometheus.NewRegistry()

	metrics, err := NewMetrics(namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Exporter{registry: registry, metrics: metrics}, nil
}

// Registry returns the exporter's registry for serving via promhttp.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Publish sets every gauge from the analysis result and assessment.
// Calling Publish again with a new run's data replaces the previous
// values; metrics from a prior run never linger with stale label sets
// because each run uses the same fixed label values per series.
func (e *Exporter) Publish(result *types.AnalysisResult, assessment *analyzer.Assessment) {
	e.metrics.MetricMean.Reset()
	e.metrics.MetricMin.Reset()
	e.metrics.MetricMax.Reset()
	e.metrics.MetricStdDev.Reset()
	e.metrics.TemperatureMax.Reset()
	e.metrics.TemperatureMean.Reset()
	e.metrics.FindingsTotal.Reset()
	e.metrics.ErrorEventsTotal.Reset()

	for name, m := range assessment.Metrics {
		e.metrics.MetricMean.WithLabelValues(name).Set(m.Mean)
		e.metrics.MetricMin.WithLabelValues(name).Set(m.Min)
		e.metrics.MetricMax.WithLabelValues(name).Set(m.Max)
		e.metrics.MetricStdDev.WithLabelValues(name).Set(m.StdDev)
	}

	for sensor, m := range assessment.Temperatures {
		e.metrics.TemperatureMax.WithLabelValues(sensor).Set(m.Max)
		e.metrics.TemperatureMean.WithLabelValues(sensor).Set(m.Mean)
	}

	e.metrics.CommErrorsTotal.WithLabelValues("rx").Set(float64(assessment.TotalRxErrors))
	e.metrics.CommErrorsTotal.WithLabelValues("tx").Set(float64(assessment.TotalTxErrors))

	findingCounts := map[[2]string]int{}
	for _, f := range assessment.Findings {
		findingCounts[[2]string{string(f.Severity), f.Category}]++
	}
	for key, count := range findingCounts {
		e.metrics.FindingsTotal.WithLabelValues(key[0], key[1]).Set(float64(count))
	}

	for _, event := range result.Errors {
		e.metrics.ErrorEventsTotal.WithLabelValues(string(event.Category)).Add(float64(event.Count))
	}

	e.metrics.LinesTotal.WithLabelValues("total").Set(float64(result.Quality.TotalLines))
	e.metrics.LinesTotal.WithLabelValues("stats").Set(float64(result.Quality.StatsLines))
	e.metrics.LinesTotal.WithLabelValues("unrecognized").Set(float64(result.Quality.UnrecognizedLines))
	e.metrics.UnrecognizedLines.Set(result.Quality.UnrecognizedFraction())
	e.metrics.RuntimeSeconds.Set(assessment.Runtime)
}
