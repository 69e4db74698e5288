package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/job"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time.
type jobSubmittedEntry struct {
	name string
	hook JobSubmitted
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type completionIgnoredEntry struct {
	name string
	hook CompletionIgnored
}

type barrierReleasedEntry struct {
	name string
	hook BarrierReleased
}

type workersReadyEntry struct {
	name string
	hook WorkersReady
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Registration must complete before the engine starts; emits happen on
// the coordinator goroutine.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobSubmitted      []jobSubmittedEntry
	jobCompleted      []jobCompletedEntry
	completionIgnored []completionIgnoredEntry
	barrierReleased   []barrierReleasedEntry
	workersReady      []workersReadyEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobSubmitted); ok {
		r.jobSubmitted = append(r.jobSubmitted, jobSubmittedEntry{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, h})
	}
	if h, ok := e.(CompletionIgnored); ok {
		r.completionIgnored = append(r.completionIgnored, completionIgnoredEntry{name, h})
	}
	if h, ok := e.(BarrierReleased); ok {
		r.barrierReleased = append(r.barrierReleased, barrierReleasedEntry{name, h})
	}
	if h, ok := e.(WorkersReady); ok {
		r.workersReady = append(r.workersReady, workersReadyEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitJobSubmitted notifies all extensions that implement JobSubmitted.
func (r *Registry) EmitJobSubmitted(ctx context.Context, j *job.Job) {
	for _, e := range r.jobSubmitted {
		if err := e.hook.OnJobSubmitted(ctx, j); err != nil {
			r.logHookError("OnJobSubmitted", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, j, elapsed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitCompletionIgnored notifies all extensions that implement CompletionIgnored.
func (r *Registry) EmitCompletionIgnored(ctx context.Context, jobID uint32) {
	for _, e := range r.completionIgnored {
		if err := e.hook.OnCompletionIgnored(ctx, jobID); err != nil {
			r.logHookError("OnCompletionIgnored", e.name, err)
		}
	}
}

// EmitBarrierReleased notifies all extensions that implement BarrierReleased.
func (r *Registry) EmitBarrierReleased(ctx context.Context, frame id.FrameID, jobs int, waited time.Duration) {
	for _, e := range r.barrierReleased {
		if err := e.hook.OnBarrierReleased(ctx, frame, jobs, waited); err != nil {
			r.logHookError("OnBarrierReleased", e.name, err)
		}
	}
}

// EmitWorkersReady notifies all extensions that implement WorkersReady.
func (r *Registry) EmitWorkersReady(ctx context.Context, count int) {
	for _, e := range r.workersReady {
		if err := e.hook.OnWorkersReady(ctx, count); err != nil {
			r.logHookError("OnWorkersReady", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
