// Package metrics exports database statement metrics for Prometheus.
package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skryldev/employee-registry/db"
)

const namespace = "registry"

// Collector implements db.MetricsCollector. Statements are labelled by their
// leading SQL verb so the label set stays small.
type Collector struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector registers the statement metrics with reg. A nil reg uses the
// default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "queries_total",
				Help:      "Number of SQL statements executed, by verb and outcome.",
			},
			[]string{"statement", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "SQL statement latency.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"statement"},
		),
	}
}

// RecordQuery implements db.MetricsCollector.
func (c *Collector) RecordQuery(query string, d time.Duration, success bool) {
	stmt := Statement(query)
	status := "ok"
	if !success {
		status = "error"
	}
	c.queries.WithLabelValues(stmt, status).Inc()
	c.duration.WithLabelValues(stmt).Observe(d.Seconds())
}

// Statement returns the lower-cased leading verb of query, or "other".
func Statement(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "other"
	}
	switch v := strings.ToLower(fields[0]); v {
	case "select", "insert", "update", "delete", "begin", "commit", "rollback":
		return v
	}
	return "other"
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr in a new goroutine. The returned server
// is stopped with Close or Shutdown.
func StartServer(addr string, g prometheus.Gatherer, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				logger.Info("metrics server closed")
			} else {
				logger.Error("metrics server failed", "addr", addr, "error", err)
			}
		}
	}()
	return server
}

var _ db.MetricsCollector = (*Collector)(nil)
