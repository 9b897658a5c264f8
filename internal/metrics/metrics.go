package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pettycash_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pettycash_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// ScanCompletions counts completions by outcome and delivery channel.
	ScanCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pettycash_scan_completions_total",
			Help: "Scan completions processed, by outcome and channel",
		},
		[]string{"outcome", "channel"},
	)

	TransferInvoicesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pettycash_transfer_invoices_issued_total",
			Help: "Transfer invoice numbers issued",
		},
	)

	TransferDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pettycash_transfer_deliveries_total",
			Help: "Transfer email deliveries, by status",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			ScanCompletions,
			TransferInvoicesIssued,
			TransferDeliveries,
		)
	})
}
