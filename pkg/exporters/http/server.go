// Package http serves a completed analysis over HTTP: the structured
// report as JSON, the rendered text report, the findings, and the
// Prometheus metrics endpoint.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supporttools/klipper-doctor/pkg/logger"
	"github.com/supporttools/klipper-doctor/pkg/report"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

// Server exposes one analysis run's results. The report can be swapped
// while serving (watch mode re-analyzes on log rewrite); requests always
// see a complete report, never a partially updated one.
type Server struct {
	config     types.ServerConfig
	httpServer *http.Server

	mu      sync.RWMutex
	current *report.Report
}

// NewServer builds the server and its routes. The registry backs the
// Prometheus metrics path; pass the exporter's registry.
func NewServer(config types.ServerConfig, registry *prometheus.Registry) *Server {
	s := &Server{config: config}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/report", s.handleReport).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/report/text", s.handleReportText).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/findings", s.handleFindings).Methods(http.MethodGet)
	router.Handle(config.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(config.BindAddress, strconv.Itoa(config.Port)),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// SetReport publishes a new report to serve.
func (s *Server) SetReport(r *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
}

// Start listens and serves until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", s.httpServer.Addr).Info("results server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("results server failed: %w", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ready := s.current != nil
	s.mu.RUnlock()

	if !ready {
		http.Error(w, "no analysis available", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		http.Error(w, "no analysis available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, current)
}

func (s *Server) handleReportText(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		http.Error(w, "no analysis available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, current.Render())
}

func (s *Server) handleFindings(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		http.Error(w, "no analysis available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, current.Findings)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
