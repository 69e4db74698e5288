package worker

import (
	"context"

	"github.com/xraph/framejob/message"
)

// Transformer is the per-job logic a worker runs. Implementations own
// the buffers in the payload they receive and may hand them back through
// Result.Transfer.
type Transformer interface {
	Transform(ctx context.Context, p message.Payload) (Result, error)
}

// TransformFunc adapts an ordinary function to a Transformer.
type TransformFunc func(ctx context.Context, p message.Payload) (Result, error)

// Transform calls f.
func (f TransformFunc) Transform(ctx context.Context, p message.Payload) (Result, error) {
	return f(ctx, p)
}

// Result is what a transform returns. Buffers listed in Transfer are
// moved to the coordinator, every other buffer in Payload is copied.
type Result struct {
	Payload  message.Payload
	Transfer []*message.Buffer
}

// Return builds a Result that moves every buffer of p back.
func Return(p message.Payload) Result {
	return Result{Payload: p, Transfer: p.Buffers}
}
