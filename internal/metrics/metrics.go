// Package metrics exposes pass counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "staywatch"

// Metrics holds the pass counters. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	listings      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	queryErrors   *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_extracted_total",
			Help:      "Listings extracted from result pages.",
		}, []string{"site"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by outcome.",
		}, []string{"site", "result"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Queries that produced no listings because of an error.",
		}, []string{"site", "kind"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one site pass.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		}, []string{"site"}),
	}
	reg.MustRegister(
		m.listings,
		m.notifications,
		m.queryErrors,
		m.passDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Extracted(site string, n int) {
	if m == nil {
		return
	}
	m.listings.WithLabelValues(site).Add(float64(n))
}

// Notified records one delivery outcome: "sent" or "failed".
func (m *Metrics) Notified(site, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(site, result).Inc()
}

// QueryFailed records a query error of kind "blocked", "timeout" or "error".
func (m *Metrics) QueryFailed(site, kind string) {
	if m == nil {
		return
	}
	m.queryErrors.WithLabelValues(site, kind).Inc()
}

func (m *Metrics) PassDone(site string, d time.Duration) {
	if m == nil {
		return
	}
	m.passDuration.WithLabelValues(site).Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr
// disables the endpoint.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server starting", "addr", addr, "path", "/metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
