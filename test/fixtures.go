// Package test provides shared fixtures for building synthetic Klipper
// logs in integration tests.
package test

import (
	"fmt"
	"strings"
)

// LogFixture provides a fluent builder for synthetic klippy.log content.
type LogFixture struct {
	lines []string
}

// NewLogFixture creates an empty log fixture.
func NewLogFixture() *LogFixture {
	return &LogFixture{}
}

// WithStartup appends the usual session preamble.
func (f *LogFixture) WithStartup() *LogFixture {
	f.lines = append(f.lines, "Starting Klippy...")
	return f
}

// WithMcu appends a full MCU announcement block.
func (f *LogFixture) WithMcu(id, version string, commands, moves int) *LogFixture {
	f.lines = append(f.lines,
		fmt.Sprintf("Loaded MCU '%s' %d commands (%s)", id, commands, version),
		fmt.Sprintf("MCU '%s' config: ADC_MAX=4095 CLOCK_FREQ=180000000", id),
		fmt.Sprintf("Configured MCU '%s' (%d moves)", id, moves),
	)
	return f
}

// WithStats appends a stats line in the modern sectioned form.
func (f *LogFixture) WithStats(ts, load, mem float64, extruderTemp float64) *LogFixture {
	f.lines = append(f.lines, fmt.Sprintf(
		"Stats %.1f: gcodein=0 mcu: freq=180000000 rx_error=0 tx_error=0 bytes_write=100 bytes_read=150 "+
			"extruder: target=210.0 temp=%.1f pwm=0.6 sysload=%.2f cputime=1.0 memavail=%.0f",
		ts, extruderTemp, load, mem))
	return f
}

// WithCommErrors appends a stats line whose mcu section carries error
// counters.
func (f *LogFixture) WithCommErrors(ts float64, rx, tx int) *LogFixture {
	f.lines = append(f.lines, fmt.Sprintf(
		"Stats %.1f: mcu: freq=180000000 rx_error=%d tx_error=%d bytes_write=200 bytes_read=300 sysload=0.3 cputime=1.0 memavail=240000",
		ts, rx, tx))
	return f
}

// WithError appends a raw error line, repeated count times.
func (f *LogFixture) WithError(text string, count int) *LogFixture {
	for i := 0; i < count; i++ {
		f.lines = append(f.lines, text)
	}
	return f
}

// WithShutdown appends a firmware shutdown line.
func (f *LogFixture) WithShutdown(reason string) *LogFixture {
	f.lines = append(f.lines, "Transition to shutdown state: "+reason)
	return f
}

// WithLine appends a verbatim line.
func (f *LogFixture) WithLine(text string) *LogFixture {
	f.lines = append(f.lines, text)
	return f
}

// String renders the log content.
func (f *LogFixture) String() string {
	return strings.Join(f.lines, "\n") + "\n"
}
