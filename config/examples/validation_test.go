package examples_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/supporttools/klipper-doctor/pkg/util"
)

// TestExampleConfigs validates every shipped example configuration:
// each file must load, pass validation, and come out with defaults
// applied and environment variables substituted.
func TestExampleConfigs(t *testing.T) {
	os.Setenv("KLIPPER_DOCTOR_PORT", "9301")

	testCases := []struct {
		name        string
		filename    string
		description string
	}{
		{
			name:        "Minimal",
			filename:    "minimal.yaml",
			description: "Bare minimum configuration",
		},
		{
			name:        "Server",
			filename:    "server.yaml",
			description: "Results server with explicit thresholds",
		},
		{
			name:        "Watch",
			filename:    "watch.yaml",
			description: "Re-analyze-on-change mode",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(".", tc.filename)
			cfg, err := util.LoadConfig(path)
			if err != nil {
				t.Fatalf("loading %s (%s): %v", tc.filename, tc.description, err)
			}

			// Defaults must be filled wherever the example is silent.
			if cfg.Settings.LogLevel == "" || cfg.Settings.LogFormat == "" {
				t.Errorf("%s: logging defaults not applied: %+v", tc.filename, cfg.Settings)
			}
			if cfg.Thresholds.HighLoad <= 0 || cfg.Thresholds.LowMemoryKB <= 0 {
				t.Errorf("%s: threshold defaults not applied: %+v", tc.filename, cfg.Thresholds)
			}
			if len(cfg.Thresholds.TemperatureLimits) == 0 {
				t.Errorf("%s: temperature limits missing", tc.filename)
			}
			if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
				t.Errorf("%s: invalid server port %d", tc.filename, cfg.Server.Port)
			}
		})
	}
}
