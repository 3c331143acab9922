package cmd

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hepdata/collider-ingest/internal/telemetry"
)

// prometheusServerRegistry starts a best-effort /metrics HTTP server on
// addr and returns the registry its collectors should be registered
// against. A listen failure is logged and swallowed: metrics exposition
// is optional observability, never load-bearing for the ingest run.
func prometheusServerRegistry(addr string, log telemetry.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warnw("metrics: server exited", "addr", addr, "error", err)
		}
	}()

	return reg
}
