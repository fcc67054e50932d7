package types

import (
	"strings"
	"testing"
)

// TestApplyDefaults verifies an empty config picks up every default.
func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Settings.LogLevel != DefaultLogLevel {
		t.Errorf("log level = %q, want %q", cfg.Settings.LogLevel, DefaultLogLevel)
	}
	if cfg.Thresholds.HighLoad != DefaultHighLoadThreshold {
		t.Errorf("high load = %v, want %v", cfg.Thresholds.HighLoad, DefaultHighLoadThreshold)
	}
	if cfg.Thresholds.LowMemoryKB != DefaultLowMemoryThresholdKB {
		t.Errorf("low memory = %v, want %v", cfg.Thresholds.LowMemoryKB, DefaultLowMemoryThresholdKB)
	}
	if cfg.Thresholds.TemperatureLimits["extruder"] != DefaultExtruderTempLimit {
		t.Errorf("extruder limit = %v, want %v", cfg.Thresholds.TemperatureLimits["extruder"], DefaultExtruderTempLimit)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("server port = %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Watch.DebounceString != DefaultWatchDebounce {
		t.Errorf("debounce = %q, want %q", cfg.Watch.DebounceString, DefaultWatchDebounce)
	}
}

// TestApplyDefaultsPreservesSetValues verifies defaults never overwrite
// explicit settings.
func TestApplyDefaultsPreservesSetValues(t *testing.T) {
	cfg := &Config{}
	cfg.Settings.LogLevel = "debug"
	cfg.Thresholds.HighLoad = 2.5
	cfg.Server.Port = 8080

	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Settings.LogLevel != "debug" {
		t.Errorf("log level overwritten: %q", cfg.Settings.LogLevel)
	}
	if cfg.Thresholds.HighLoad != 2.5 {
		t.Errorf("high load overwritten: %v", cfg.Thresholds.HighLoad)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port overwritten: %d", cfg.Server.Port)
	}
}

// TestValidate verifies validation rejects inconsistent configs and
// accepts a defaulted one.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Settings.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Settings.LogFormat = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "file output without path",
			mutate:  func(c *Config) { c.Settings.LogOutput = "file" },
			wantErr: "logFile must be set",
		},
		{
			name:    "negative load threshold",
			mutate:  func(c *Config) { c.Thresholds.HighLoad = -1 },
			wantErr: "cannot be negative",
		},
		{
			name:    "nonpositive temperature limit",
			mutate:  func(c *Config) { c.Thresholds.TemperatureLimits["extruder"] = 0 },
			wantErr: "must be positive",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			if err := cfg.ApplyDefaults(); err != nil {
				t.Fatalf("applying defaults: %v", err)
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestTemperatureLimitFor verifies substring matching against sensor
// names, longest class winning.
func TestTemperatureLimitFor(t *testing.T) {
	thresholds := ThresholdConfig{
		TemperatureLimits: map[string]float64{
			"extruder":   250,
			"bed":        100,
			"heater_bed": 110,
		},
	}

	tests := []struct {
		sensor    string
		wantLimit float64
		wantFound bool
	}{
		{"extruder", 250, true},
		{"extruder1", 250, true},
		{"heater_bed", 110, true},
		{"bed_outer", 100, true},
		{"Heater_Bed", 110, true},
		{"chamber_probe", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.sensor, func(t *testing.T) {
			limit, found := thresholds.TemperatureLimitFor(tt.sensor)
			if found != tt.wantFound || limit != tt.wantLimit {
				t.Errorf("TemperatureLimitFor(%q) = %v, %v; want %v, %v",
					tt.sensor, limit, found, tt.wantLimit, tt.wantFound)
			}
		})
	}
}
