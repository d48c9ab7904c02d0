// Package server provides the masking API and the management endpoints for
// metrics and health checks.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hfi/secure-mask/internal/config"
)

// HealthStatus represents the health status of the server
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Languages []string          `json:"languages,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker is a function that checks component health
type HealthChecker func() (ok bool, message string)

// MaskFunc masks source in a language
type MaskFunc func(source, language string) (string, error)

// canarySource is masked by EngineCheck; a working engine always renames the class
const canarySource = "class HealthCanary {"

// EngineCheck reports whether the engine still masks a known snippet in language
func EngineCheck(mask MaskFunc, language string) HealthChecker {
	return func() (bool, string) {
		out, err := mask(canarySource, language)
		if err != nil {
			return false, err.Error()
		}
		if out == canarySource {
			return false, "canary left unmasked"
		}
		return true, ""
	}
}

// StoreCheck reports the result store as unhealthy when ping fails
func StoreCheck(ping func() error) HealthChecker {
	return func() (bool, string) {
		if err := ping(); err != nil {
			return false, err.Error()
		}
		return true, ""
	}
}

// Server provides HTTP endpoints for metrics and health
type Server struct {
	mu        sync.RWMutex
	server    *http.Server
	mux       *http.ServeMux
	checkers  map[string]HealthChecker
	languages []string
	startTime time.Time
	version   string
}

// Config holds management server configuration
type Config struct {
	// Addr is the address to listen on (e.g., ":9090")
	Addr string

	// MetricsPath is the path for Prometheus metrics
	MetricsPath string

	// HealthPath is the path for health checks
	HealthPath string

	// ReadyPath is the path for readiness checks
	ReadyPath string

	// LivePath is the path for liveness checks
	LivePath string

	// Version is the application version
	Version string
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:        ":9090",
		MetricsPath: "/metrics",
		HealthPath:  "/health",
		ReadyPath:   "/ready",
		LivePath:    "/live",
		Version:     "dev",
	}
}

// FromConfig builds the management server configuration from the metrics section
func FromConfig(m config.MetricsConfig, version string) *Config {
	cfg := DefaultConfig()
	cfg.Addr = ":" + strconv.Itoa(m.Port)
	if m.Endpoint != "" {
		cfg.MetricsPath = m.Endpoint
	}
	cfg.Version = version
	return cfg
}

// New creates a new management server
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		checkers:  make(map[string]HealthChecker),
		startTime: time.Now(),
		version:   cfg.Version,
	}

	// Register routes
	s.mux.Handle(cfg.MetricsPath, promhttp.Handler())
	s.mux.HandleFunc(cfg.HealthPath, s.healthHandler)
	s.mux.HandleFunc(cfg.ReadyPath, s.readyHandler)
	s.mux.HandleFunc(cfg.LivePath, s.liveHandler)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	return s
}

// RegisterHealthCheck registers a health checker
func (s *Server) RegisterHealthCheck(name string, checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// SetLanguages sets the languages reported by the health endpoint
func (s *Server) SetLanguages(languages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languages = languages
}

// Start starts the management server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// healthHandler returns detailed health status
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Languages: s.languages,
		Checks:    make(map[string]string),
	}

	// Run all health checks
	allHealthy := true
	for name, checker := range s.checkers {
		ok, msg := checker()
		if ok {
			status.Checks[name] = "ok"
		} else {
			status.Checks[name] = msg
			allHealthy = false
		}
	}

	code := http.StatusOK
	if !allHealthy {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status)
}

// readyHandler indicates if the service is ready to receive traffic
func (s *Server) readyHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Check all health checkers
	for name, checker := range s.checkers {
		ok, _ := checker()
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := fmt.Fprintf(w, "not ready: %s check failed", name); err != nil {
				return
			}
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		// Connection closed, nothing we can do
		return
	}
}

// liveHandler indicates if the service is alive
func (s *Server) liveHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		// Connection closed, nothing we can do
		return
	}
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Addr returns the server address
func (s *Server) Addr() string {
	return s.server.Addr
}

// writeJSON sets the content type before the status line
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent
		return
	}
}
