package framejob

import "errors"

var (
	// ErrNoPool is returned by New when no worker pool is supplied.
	ErrNoPool = errors.New("framejob: no worker pool configured")

	// ErrBarrierPending is returned by RegisterBarrier while a previous
	// continuation is still waiting for its jobs to drain.
	ErrBarrierPending = errors.New("framejob: barrier already pending")

	// ErrNilContinuation is returned by RegisterBarrier for a nil continuation.
	ErrNilContinuation = errors.New("framejob: nil continuation")

	// ErrNotStarted is returned when posting to an engine that is not running.
	ErrNotStarted = errors.New("framejob: engine not started")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("framejob: engine already started")

	// ErrStopped is returned when posting to an engine that has been stopped.
	ErrStopped = errors.New("framejob: engine stopped")
)
