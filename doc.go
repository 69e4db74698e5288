// Package framejob provides parallel per-frame job dispatch for bulk data
// transforms such as particle updates.
//
// A fixed pool of worker goroutines receives job messages and returns
// results. A single coordinator goroutine owns the [Dispatcher], which
// assigns frame-local job ids, routes each result to its callback and
// runs a frame continuation once every outstanding job has drained.
//
// # Quick Start
//
//	eng, err := engine.New(particle.Integrator{},
//	    engine.WithConfig(framejob.DefaultConfig()),
//	)
//	if err := eng.Start(ctx); err != nil { ... }
//	<-eng.Ready()
//
//	eng.Post(func(ctx context.Context, d *framejob.Dispatcher) {
//	    d.Submit(ctx, onChunk, payload, buf)
//	    _ = d.RegisterBarrier(ctx, endFrame)
//	})
//
// # Concurrency
//
// Dispatcher and worker.Pool state is touched only on the coordinator
// goroutine and is not locked. Workers and the coordinator exchange
// messages through unbounded mailboxes, so neither Submit nor
// RegisterBarrier ever blocks. Buffers in a job's transfer list change
// owner at send time and the sender must not touch them again.
//
// # Limitations
//
// There is no per-job timeout, retry or worker restart. A transform that
// fails or never returns leaves its job outstanding forever, and a
// pending barrier waiting on it never releases.
package framejob
