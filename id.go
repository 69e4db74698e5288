package framejob

import "github.com/xraph/framejob/id"

// ID is the identifier type for frames and workers.
type ID = id.ID

// FrameID identifies one barrier cycle.
type FrameID = id.FrameID
