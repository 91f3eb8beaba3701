// prometheus.go - Prometheus metrics exporter
package server

import (
	"fmt"
	"net/http"
	"strings"
)

// PrometheusExporter converts internal metrics to Prometheus format
type PrometheusExporter struct{}

// NewPrometheusExporter creates a new Prometheus exporter
func NewPrometheusExporter() *PrometheusExporter {
	return &PrometheusExporter{}
}

// Handler returns an HTTP handler for the /metrics endpoint
func (p *PrometheusExporter) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		snapshot := GetMetrics().Snapshot()

		var output strings.Builder

		writeCounter := func(name, help string, value int64) {
			output.WriteString(fmt.Sprintf("# HELP %s %s\n", name, help))
			output.WriteString(fmt.Sprintf("# TYPE %s counter\n", name))
			output.WriteString(fmt.Sprintf("%s %d\n\n", name, value))
		}

		writeCounter("ml_requests_total", "Total number of HTTP requests", snapshot.RequestsTotal)
		writeCounter("ml_request_errors_4xx_total", "Total number of 4xx responses", snapshot.RequestErrors4xx)
		writeCounter("ml_request_errors_5xx_total", "Total number of 5xx responses", snapshot.RequestErrors5xx)

		writeCounter("ml_recipients_created_total", "Total recipients added to the list", snapshot.RecipientsCreatedTotal)
		writeCounter("ml_recipients_updated_total", "Total recipient updates", snapshot.RecipientsUpdatedTotal)
		writeCounter("ml_recipients_deleted_total", "Total recipients removed from the list", snapshot.RecipientsDeletedTotal)

		writeCounter("ml_signups_total", "Total account registrations", snapshot.SignupsTotal)
		writeCounter("ml_auth_failures_total", "Total rejected Basic auth attempts", snapshot.AuthFailuresTotal)

		writeCounter("ml_exports_total", "Total successful snapshot exports", snapshot.ExportsTotal)
		writeCounter("ml_export_errors_total", "Total failed snapshot exports", snapshot.ExportErrorsTotal)

		output.WriteString("# HELP ml_exported_recipients Recipients in the last exported snapshot\n")
		output.WriteString("# TYPE ml_exported_recipients gauge\n")
		output.WriteString(fmt.Sprintf("ml_exported_recipients %d\n", snapshot.ExportedRecipients))

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(output.String()))
	}
}
