// Package ext defines the extension system for framejob.
// Extensions are notified of coordinator lifecycle events (job submitted,
// completed, barrier released, etc.) and can react to them: logging,
// metrics, tracing.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobSubmitted is called after a job has been sent to a worker.
type JobSubmitted interface {
	OnJobSubmitted(ctx context.Context, j *job.Job) error
}

// JobCompleted is called after a job's callback has run.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error
}

// CompletionIgnored is called when a result arrives for a job id that is
// not outstanding (duplicate or stale completion).
type CompletionIgnored interface {
	OnCompletionIgnored(ctx context.Context, jobID uint32) error
}

// BarrierReleased is called right before a frame continuation runs.
// jobs is the number of jobs submitted during the frame, waited is how
// long the continuation was pending (zero on the fast path).
type BarrierReleased interface {
	OnBarrierReleased(ctx context.Context, frame id.FrameID, jobs int, waited time.Duration) error
}

// WorkersReady is called once every worker has acknowledged init.
type WorkersReady interface {
	OnWorkersReady(ctx context.Context, count int) error
}

// Shutdown is called when the engine is stopping.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
