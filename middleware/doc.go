// Package middleware provides composable middleware for worker-side job
// execution.
//
// A [Middleware] is a function that wraps the transform a worker runs for
// one job. Middleware are composed into a chain using [Chain]. They are
// applied right-to-left: the first middleware in the slice is the
// outermost wrapper.
//
//	// recover → logging → handler
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// # Built-in Middleware
//
//   - [Recover] catches panics and converts them to errors
//   - [Logging] logs job id, worker and duration at debug level
//   - [Tracing] wraps execution in an OpenTelemetry span
//   - [Metrics] records per-job duration and outcome counters
//
// A job whose chain returns an error produces no result message. The
// worker logs the failure and the job stays outstanding on the
// coordinator.
package middleware
