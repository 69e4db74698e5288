// Package observability provides metrics extensions for framejob. The
// MetricsExtension records coordinator lifecycle counters through a
// go-utils MetricFactory; PrometheusCollector exports the same events as
// Prometheus metrics.
//
// For per-transform tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
