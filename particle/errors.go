package particle

import "errors"

var (
	// ErrStride is returned when a stride cannot hold the fields an
	// operation reads.
	ErrStride = errors.New("framejob: particle stride too small")

	// ErrShortBuffer is returned when a buffer holds fewer than count
	// records.
	ErrShortBuffer = errors.New("framejob: particle buffer too short")

	// ErrCount is returned for a negative particle count.
	ErrCount = errors.New("framejob: negative particle count")

	// ErrID is returned for a particle id that is NaN or not below MaxID.
	ErrID = errors.New("framejob: particle id out of range")
)
