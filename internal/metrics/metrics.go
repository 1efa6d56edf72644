package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Parse outcomes are labeled ok / parse_error.
var ParsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "weekcal_parses_total",
	Help: "Schedule text submissions by outcome.",
}, []string{"status"})

// Export formats: ics, png.
var ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "weekcal_exports_total",
	Help: "Completed schedule exports by format.",
}, []string{"format"})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "weekcal_http_request_duration_seconds",
	Help:    "HTTP request latency by path.",
	Buckets: prometheus.DefBuckets,
}, []string{"path"})
