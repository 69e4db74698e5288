// Package engine runs a framejob Dispatcher on its own coordinator
// goroutine and wires the subsystems around it: the worker pool, the
// middleware chain, the extension registry, the event bus and the
// observability extensions.
//
// The engine package exists to break an import cycle: the root framejob
// package defines the Dispatcher and Config that the subsystems build on,
// so it cannot import them back. Engine sits above all subsystem packages
// and below the application layer.
//
// # Running frames
//
//	eng, err := engine.New(particle.Integrator{},
//	    engine.WithConfig(cfg),
//	    engine.WithLogger(logger),
//	)
//	if err := eng.Start(ctx); err != nil { ... }
//	<-eng.Ready()
//
//	for frame := range frames {
//	    eng.Submit(onChunk, payload, buf)
//	    if err := eng.Wait(ctx); err != nil { ... }
//	}
//
// Every callback and continuation runs on the coordinator goroutine, one
// at a time. Code that needs the Dispatcher directly posts a function with
// [Engine.Post].
//
// # Options
//
//   - [WithConfig]: worker count and shutdown timeout
//   - [WithLogger]: structured logger
//   - [WithExtension]: register a lifecycle extension
//   - [WithMiddleware]: add a middleware to every worker's chain
//   - [WithTracerProvider]: set the OpenTelemetry tracer provider
//   - [WithMeterProvider]: set the OpenTelemetry meter provider
//   - [WithMetricFactory]: set the go-utils factory for lifecycle counters
//   - [WithPrometheus]: export lifecycle metrics to a Prometheus registerer
package engine
