package middleware

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/framejob/job"
)

// meterName is the instrumentation scope name for framejob metrics.
const meterName = "github.com/xraph/framejob"

// Metrics returns middleware that records per-job execution metrics using
// the global OTel MeterProvider.
//
// Instruments:
//   - framejob.job.duration (Float64Histogram): transform time in seconds,
//     with attributes: worker, status ("ok" or "error")
//   - framejob.job.executions (Int64Counter): total executions,
//     with attributes: worker, status
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API hands back noop instruments.
	duration, _ := meter.Float64Histogram(
		"framejob.job.duration",
		metric.WithDescription("Duration of job transforms in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"framejob.job.executions",
		metric.WithDescription("Total number of job transforms"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("worker", strconv.Itoa(j.Worker)),
			attribute.String("status", status),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
