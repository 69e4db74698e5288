// Package ext defines the extension system for framejob.
//
// Extensions are notified of coordinator lifecycle events and can react
// to them by recording metrics or writing logs. Each lifecycle hook is a
// separate interface so extensions opt in only to the events they care
// about.
//
// # Implementing an Extension
//
//	type FrameLogger struct{ logger *slog.Logger }
//
//	func (e *FrameLogger) Name() string { return "frame-logger" }
//
//	func (e *FrameLogger) OnBarrierReleased(ctx context.Context, frame id.FrameID, jobs int, waited time.Duration) error {
//	    e.logger.Info("frame drained", "frame", frame, "jobs", jobs, "waited", waited)
//	    return nil
//	}
//
// # Hooks
//
//   - [JobSubmitted]: a job was sent to a worker
//   - [JobCompleted]: a job's callback ran
//   - [CompletionIgnored]: a result arrived for an unknown job id
//   - [BarrierReleased]: a frame continuation is about to run
//   - [WorkersReady]: all workers acknowledged init
//   - [Shutdown]: the engine is stopping
//
// Hooks run on the coordinator goroutine. They must not block: a slow
// hook delays every job completion behind it.
package ext
