package worker

import "errors"

var (
	// ErrAlreadyInitialized is returned by Pool.Initialize on a pool that
	// already has workers.
	ErrAlreadyInitialized = errors.New("framejob: worker pool already initialized")

	// ErrInvalidCount is returned for a negative worker count.
	ErrInvalidCount = errors.New("framejob: invalid worker count")

	// ErrNilTransformer is returned when a pool or engine is given no
	// Transformer.
	ErrNilTransformer = errors.New("framejob: nil transformer")
)
