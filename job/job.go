package job

import (
	"time"

	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/message"
)

// Callback receives the result payload of a completed job.
type Callback func(result message.Payload)

// Job represents a unit of work dispatched to a worker.
type Job struct {
	// ID is unique among outstanding jobs of the current frame.
	ID uint32

	// Frame is the barrier cycle the job was submitted in.
	Frame id.FrameID

	// Worker is the pool index the job was sent to.
	Worker int

	Callback    Callback
	SubmittedAt time.Time
}
