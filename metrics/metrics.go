// Package metrics exposes Prometheus counters for the scanner and the
// append service, plus a standalone metrics HTTP listener.
package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScansTotal counts completed scan sessions by outcome
	// ("resolved", "unresolved").
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spoolscan_scans_total",
		Help: "Completed scan sessions by resolution outcome.",
	}, []string{"outcome"})

	// BlocksDecoded counts successfully decoded tag blocks.
	BlocksDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spoolscan_blocks_decoded_total",
		Help: "Tag memory blocks decoded successfully.",
	})

	// AuthFailures counts per-sector authentication failures.
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spoolscan_sector_auth_failures_total",
		Help: "Sector authentication failures across all sessions.",
	})

	// SubmissionsTotal counts submissions to the append service by result
	// ("ok", "rejected", "error", "skipped").
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spoolscan_submissions_total",
		Help: "Scan submissions to the append service by result.",
	}, []string{"result"})

	// AppendsTotal counts append-service writes by status
	// ("recorded", "duplicate").
	AppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spoolscan_appends_total",
		Help: "Append service scan writes by status.",
	}, []string{"status"})
)

var infoOnce sync.Once

// MetricsServer serves the Prometheus registry on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name and address.
func New(name, listenAddr string) (*MetricsServer, error) {
	infoOnce.Do(func() {
		promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "spoolscan_info",
			Help:        "Service identity.",
			ConstLabels: prometheus.Labels{"service": name},
		}).Set(1)
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:    listenAddr,
			Handler: mux,
		},
	}, nil
}

// ListenAndServe blocks serving metrics until Shutdown or failure.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
