// Package types defines configuration types for Klipper Doctor.
package types

import (
	"fmt"
	"strings"
)

// Package-level defaults
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stderr"

	// DefaultHighLoadThreshold flags any single sample above this host
	// load average.
	DefaultHighLoadThreshold = 1.0

	// DefaultHighLoadMeanThreshold flags a whole run whose mean load sits
	// above this value.
	DefaultHighLoadMeanThreshold = 0.8

	// DefaultLowMemoryThresholdKB flags any sample with less available
	// memory than this (100 MB).
	DefaultLowMemoryThresholdKB = 100000.0

	// DefaultLowMemoryAdvisoryKB drives the memory recommendation (200 MB).
	DefaultLowMemoryAdvisoryKB = 200000.0

	// DefaultMaxErrorCount is the error-line total above which the run is
	// flagged as error-heavy.
	DefaultMaxErrorCount = 10

	// DefaultExtruderTempLimit and DefaultBedTempLimit are the per-class
	// overheat limits in degrees Celsius.
	DefaultExtruderTempLimit = 250.0
	DefaultBedTempLimit      = 100.0

	DefaultServerBindAddress = "127.0.0.1"
	DefaultServerPort        = 9301
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "klipper_doctor"

	DefaultWatchDebounce = "2s"
)

// Valid log settings, shared by config validation and the logger.
var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}
)

// Config is the top-level Klipper Doctor configuration.
type Config struct {
	// Settings contains global options (logging).
	Settings GlobalSettings `json:"settings" yaml:"settings"`

	// Thresholds drives the aggregator's finding rules. Passing the
	// thresholds in explicitly keeps runs deterministic and lets tests use
	// different limits side by side.
	Thresholds ThresholdConfig `json:"thresholds" yaml:"thresholds"`

	// Server configures the optional results HTTP/metrics endpoint.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Watch configures the optional re-analyze-on-change mode.
	Watch WatchConfig `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// GlobalSettings contains options that apply to the whole run.
type GlobalSettings struct {
	// LogLevel is the tool's own log verbosity (debug, info, warn, error, fatal).
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// LogFormat is json or text.
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`

	// LogOutput is stdout, stderr, or file.
	LogOutput string `json:"logOutput,omitempty" yaml:"logOutput,omitempty"`

	// LogFile is the destination path when LogOutput is "file".
	LogFile string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// ThresholdConfig contains the limits the aggregator checks samples and
// aggregates against.
type ThresholdConfig struct {
	// HighLoad flags any single sample whose system load exceeds it.
	HighLoad float64 `json:"highLoad,omitempty" yaml:"highLoad,omitempty"`

	// HighLoadMean flags a run whose mean system load exceeds it.
	HighLoadMean float64 `json:"highLoadMean,omitempty" yaml:"highLoadMean,omitempty"`

	// LowMemoryKB flags any sample with less available memory (in kB).
	LowMemoryKB float64 `json:"lowMemoryKB,omitempty" yaml:"lowMemoryKB,omitempty"`

	// MaxErrorCount flags a run with more raw error lines than this.
	MaxErrorCount int `json:"maxErrorCount,omitempty" yaml:"maxErrorCount,omitempty"`

	// TemperatureLimits maps a sensor-class substring (matched against
	// the sensor name) to its overheat limit in degrees Celsius.
	TemperatureLimits map[string]float64 `json:"temperatureLimits,omitempty" yaml:"temperatureLimits,omitempty"`
}

// TemperatureLimitFor returns the overheat limit applying to the named
// sensor, matching class substrings against the sensor name. The second
// return is false when no class matches (no limit applies).
func (t ThresholdConfig) TemperatureLimitFor(sensor string) (float64, bool) {
	var (
		best    float64
		bestLen = -1
	)
	// Longest matching class wins so "bed" cannot shadow "bed_mesh_probe"
	// style entries users add themselves.
	lower := strings.ToLower(sensor)
	for class, limit := range t.TemperatureLimits {
		if len(class) > bestLen && strings.Contains(lower, strings.ToLower(class)) {
			best = limit
			bestLen = len(class)
		}
	}
	return best, bestLen >= 0
}

// ServerConfig configures the optional HTTP endpoint that serves a
// completed run's report and Prometheus metrics.
type ServerConfig struct {
	// Enabled controls whether the server starts after analysis.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BindAddress is the listen address (default 127.0.0.1).
	BindAddress string `json:"bindAddress,omitempty" yaml:"bindAddress,omitempty"`

	// Port is the listen port (default 9301).
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// MetricsPath is the Prometheus scrape path (default /metrics).
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	// MetricsNamespace is the Prometheus metric namespace
	// (default klipper_doctor).
	MetricsNamespace string `json:"metricsNamespace,omitempty" yaml:"metricsNamespace,omitempty"`
}

// WatchConfig configures the re-analyze-on-change mode. Each change
// triggers a fresh full-file pass; the analyzer itself stays batch.
type WatchConfig struct {
	// Enabled controls whether the log file is watched for rewrites.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// DebounceString is how long to wait after the last write event
	// before re-analyzing (e.g. "2s").
	DebounceString string `json:"debounce,omitempty" yaml:"debounce,omitempty"`
}

// ApplyDefaults fills zero-valued fields with package defaults.
func (c *Config) ApplyDefaults() error {
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = DefaultLogFormat
	}
	if c.Settings.LogOutput == "" {
		c.Settings.LogOutput = DefaultLogOutput
	}

	if c.Thresholds.HighLoad == 0 {
		c.Thresholds.HighLoad = DefaultHighLoadThreshold
	}
	if c.Thresholds.HighLoadMean == 0 {
		c.Thresholds.HighLoadMean = DefaultHighLoadMeanThreshold
	}
	if c.Thresholds.LowMemoryKB == 0 {
		c.Thresholds.LowMemoryKB = DefaultLowMemoryThresholdKB
	}
	if c.Thresholds.MaxErrorCount == 0 {
		c.Thresholds.MaxErrorCount = DefaultMaxErrorCount
	}
	if c.Thresholds.TemperatureLimits == nil {
		c.Thresholds.TemperatureLimits = map[string]float64{
			"extruder": DefaultExtruderTempLimit,
			"bed":      DefaultBedTempLimit,
		}
	}

	if c.Server.BindAddress == "" {
		c.Server.BindAddress = DefaultServerBindAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Server.MetricsNamespace == "" {
		c.Server.MetricsNamespace = DefaultMetricsNamespace
	}

	if c.Watch.DebounceString == "" {
		c.Watch.DebounceString = DefaultWatchDebounce
	}

	return nil
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if !validLogLevels[c.Settings.LogLevel] {
		return fmt.Errorf("invalid log level %q", c.Settings.LogLevel)
	}
	if !validLogFormats[c.Settings.LogFormat] {
		return fmt.Errorf("invalid log format %q: must be json or text", c.Settings.LogFormat)
	}
	if !validLogOutputs[c.Settings.LogOutput] {
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", c.Settings.LogOutput)
	}
	if c.Settings.LogOutput == "file" && c.Settings.LogFile == "" {
		return fmt.Errorf("logFile must be set when logOutput is \"file\"")
	}

	if c.Thresholds.HighLoad < 0 {
		return fmt.Errorf("highLoad threshold cannot be negative: %v", c.Thresholds.HighLoad)
	}
	if c.Thresholds.HighLoadMean < 0 {
		return fmt.Errorf("highLoadMean threshold cannot be negative: %v", c.Thresholds.HighLoadMean)
	}
	if c.Thresholds.LowMemoryKB < 0 {
		return fmt.Errorf("lowMemoryKB threshold cannot be negative: %v", c.Thresholds.LowMemoryKB)
	}
	if c.Thresholds.MaxErrorCount < 0 {
		return fmt.Errorf("maxErrorCount cannot be negative: %d", c.Thresholds.MaxErrorCount)
	}
	for class, limit := range c.Thresholds.TemperatureLimits {
		if limit <= 0 {
			return fmt.Errorf("temperature limit for class %q must be positive: %v", class, limit)
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}
