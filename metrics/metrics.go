// Package metrics exposes Prometheus counters for upload, replication,
// and probe activity, served on a dedicated metrics address.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// UploadsTotal counts primary uploads by provider and result.
	UploadsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "journal_uploads_total",
		Help: "Primary uploads by provider and result.",
	}, []string{"provider", "result"})

	// ReplicationJobsTotal counts finished replication jobs by target
	// provider and outcome.
	ReplicationJobsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "journal_replication_jobs_total",
		Help: "Replication job outcomes by target provider.",
	}, []string{"target", "result"})

	// ProbeFailuresTotal counts failed health probes by provider.
	ProbeFailuresTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "journal_probe_failures_total",
		Help: "Failed provider health probes.",
	}, []string{"provider"})
)

// MetricsServer serves the Prometheus registry over HTTP.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr.
func New(name, addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving metrics requests.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
