package telemetry

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts handled command invocations by command name.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvebot_commands_total",
		Help: "Number of command invocations handled, by command.",
	}, []string{"command"})

	// UpstreamErrorsTotal counts failed NVD API calls.
	UpstreamErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cvebot_upstream_errors_total",
		Help: "Number of failed requests to the vulnerability API.",
	})

	// ActiveSessions tracks live pagination sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cvebot_active_pagination_sessions",
		Help: "Number of pagination sessions currently accepting signals.",
	})
)

// StartMetricsServer starts a HTTP server exposing Prometheus metrics.
func StartMetricsServer(addr string) error {
	http.Handle("/metrics", promhttp.Handler())

	slog.Info("Starting metrics server", "addr", addr)
	return http.ListenAndServe(addr, nil)
}
