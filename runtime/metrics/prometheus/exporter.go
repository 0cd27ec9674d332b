package prometheus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 10 * time.Second
	healthTimeout     = 2 * time.Second
)

// HealthCheck reports whether a dependency of the generator is usable.
type HealthCheck func(ctx context.Context) error

// Exporter serves the generator metrics on /metrics and a readiness probe on
// /health while a long-running command (pipeline, batch synthesis) is active.
type Exporter struct {
	addr     string
	registry *prometheus.Registry
	checks   map[string]HealthCheck

	mu     sync.Mutex
	server *http.Server
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithRegistry serves reg instead of a registry holding the package metrics.
func WithRegistry(reg *prometheus.Registry) ExporterOption {
	return func(e *Exporter) { e.registry = reg }
}

// WithHealthCheck adds a named check to /health. A failing check turns the
// probe into a 503.
func WithHealthCheck(name string, check HealthCheck) ExporterOption {
	return func(e *Exporter) { e.checks[name] = check }
}

// NewExporter returns an exporter listening on addr once started.
func NewExporter(addr string, opts ...ExporterOption) *Exporter {
	e := &Exporter{addr: addr, checks: make(map[string]HealthCheck)}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = prometheus.NewRegistry()
		for _, c := range allMetrics {
			e.registry.MustRegister(c)
		}
		e.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return e
}

// ServeMux routes /metrics and /health.
func (e *Exporter) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/health", e.health)
	return mux
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (e *Exporter) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	report := healthReport{Status: "ok"}
	code := http.StatusOK
	if len(e.checks) > 0 {
		report.Checks = make(map[string]string, len(e.checks))
	}
	for name, check := range e.checks {
		if err := check(ctx); err != nil {
			report.Checks[name] = err.Error()
			report.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		report.Checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}

// Start listens on the configured address. It blocks until Shutdown and then
// returns http.ErrServerClosed. Calling Start on a running exporter is a no-op.
func (e *Exporter) Start() error {
	e.mu.Lock()
	if e.server != nil {
		e.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              e.addr,
		Handler:           e.ServeMux(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	e.server = srv
	e.mu.Unlock()
	return srv.ListenAndServe()
}

// StartBackground runs Start in a goroutine; errors other than a graceful
// close go to errFn.
func (e *Exporter) StartBackground(errFn func(error)) {
	go func() {
		if err := e.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) && errFn != nil {
			errFn(err)
		}
	}()
}

// Shutdown stops a started exporter.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	srv := e.server
	e.server = nil
	e.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
