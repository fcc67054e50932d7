package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/supporttools/klipper-doctor/pkg/report"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := types.ServerConfig{
		BindAddress: "127.0.0.1",
		Port:        0,
		MetricsPath: "/metrics",
	}
	return NewServer(cfg, prometheus.NewRegistry())
}

func testReport() *report.Report {
	return &report.Report{
		LogPath: "klippy.log",
		Findings: []types.Finding{
			{Severity: types.SeverityWarning, Category: "communication", Message: "communication errors detected"},
		},
		Recommendations: []string{"Check cables and connectors between the host and MCU"},
	}
}

func do(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

// TestServerBeforeAnalysis verifies every results route returns 503
// until a report is published.
func TestServerBeforeAnalysis(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/api/v1/report", "/api/v1/report/text", "/api/v1/findings"} {
		rec := do(t, s, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, rec.Code)
		}
	}
}

// TestServerReportJSON verifies the JSON report route after publishing.
func TestServerReportJSON(t *testing.T) {
	s := newTestServer(t)
	s.SetReport(testReport())

	rec := do(t, s, "/api/v1/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var got report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parsing body: %v", err)
	}
	if got.LogPath != "klippy.log" {
		t.Errorf("log path = %q", got.LogPath)
	}
	if len(got.Findings) != 1 {
		t.Errorf("findings = %+v", got.Findings)
	}
}

// TestServerReportText verifies the rendered text route.
func TestServerReportText(t *testing.T) {
	s := newTestServer(t)
	s.SetReport(testReport())

	rec := do(t, s, "/api/v1/report/text")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "KLIPPER LOG HEALTH REPORT") {
		t.Error("text report header missing")
	}
}

// TestServerFindings verifies the findings route returns just the
// findings array.
func TestServerFindings(t *testing.T) {
	s := newTestServer(t)
	s.SetReport(testReport())

	rec := do(t, s, "/api/v1/findings")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var findings []types.Finding
	if err := json.Unmarshal(rec.Body.Bytes(), &findings); err != nil {
		t.Fatalf("parsing body: %v", err)
	}
	if len(findings) != 1 || findings[0].Category != "communication" {
		t.Errorf("unexpected findings: %+v", findings)
	}
}

// TestServerSwapReport verifies a republished report replaces the
// served one.
func TestServerSwapReport(t *testing.T) {
	s := newTestServer(t)
	s.SetReport(testReport())

	updated := testReport()
	updated.LogPath = "klippy.log.1"
	s.SetReport(updated)

	rec := do(t, s, "/api/v1/report")
	var got report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parsing body: %v", err)
	}
	if got.LogPath != "klippy.log.1" {
		t.Errorf("log path = %q, want the updated report", got.LogPath)
	}
}

// TestServerMetricsRoute verifies the metrics path serves the registry.
func TestServerMetricsRoute(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
