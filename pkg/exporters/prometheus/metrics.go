// Package prometheus exposes a completed analysis as Prometheus metrics.
// A batch run publishes its aggregates once; operators scrape the endpoint
// to feed dashboards that sit next to their live printer telemetry.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all the Prometheus metrics published for one analysis.
type Metrics struct {
	// Gauge metrics over the aggregated series
	MetricMean   *prometheus.GaugeVec
	MetricMin    *prometheus.GaugeVec
	MetricMax    *prometheus.GaugeVec
	MetricStdDev *prometheus.GaugeVec

	// Temperature gauges per sensor
	TemperatureMax  *prometheus.GaugeVec
	TemperatureMean *prometheus.GaugeVec

	// Communication totals
	CommErrorsTotal *prometheus.GaugeVec

	// Findings and error events by severity/category
	FindingsTotal    *prometheus.GaugeVec
	ErrorEventsTotal *prometheus.GaugeVec

	// Data quality
	LinesTotal        *prometheus.GaugeVec
	UnrecognizedLines prometheus.Gauge
	RuntimeSeconds    prometheus.Gauge
}

// NewMetrics creates the metric set under the given namespace.
func NewMetrics(namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = "klipper_doctor"
	}

	m := &Metrics{
		MetricMean: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "metric_mean",
				Help:      "Mean of a performance metric over the analyzed log",
			},
			[]string{"metric"},
		),
		MetricMin: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "metric_min",
				Help:      "Minimum of a performance metric over the analyzed log",
			},
			[]string{"metric"},
		),
		MetricMax: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "metric_max",
				Help:      "Maximum of a performance metric over the analyzed log",
			},
			[]string{"metric"},
		),
		MetricStdDev: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "metric_stddev",
				Help:      "Standard deviation of a performance metric over the analyzed log",
			},
			[]string{"metric"},
		),
		TemperatureMax: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "temperature_max_celsius",
				Help:      "Peak temperature per sensor over the analyzed log",
			},
			[]string{"sensor"},
		),
		TemperatureMean: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "temperature_mean_celsius",
				Help:      "Mean temperature per sensor over the analyzed log",
			},
			[]string{"sensor"},
		),
		CommErrorsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "comm_errors_total",
				Help:      "Total communication errors by direction over the analyzed log",
			},
			[]string{"direction"},
		),
		FindingsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Findings by severity and category",
			},
			[]string{"severity", "category"},
		),
		ErrorEventsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "error_events_total",
				Help:      "Raw error/warning lines by category",
			},
			[]string{"category"},
		),
		LinesTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "lines_total",
				Help:      "Input lines by classification outcome",
			},
			[]string{"outcome"},
		),
		UnrecognizedLines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "unrecognized_line_fraction",
				Help:      "Fraction of input lines no classification rule matched",
			},
		),
		RuntimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "log_runtime_seconds",
				Help:      "Stats timestamp span of the analyzed log",
			},
		),
	}

	return m, nil
}

// Register adds all metrics to the registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		m.MetricMean,
		m.MetricMin,
		m.MetricMax,
		m.MetricStdDev,
		m.TemperatureMax,
		m.TemperatureMean,
		m.CommErrorsTotal,
		m.FindingsTotal,
		m.ErrorEventsTotal,
		m.LinesTotal,
		m.UnrecognizedLines,
		m.RuntimeSeconds,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}
