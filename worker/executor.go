// Package worker provides the worker side of framejob: an Executor that
// runs a Transformer through middleware, the Worker message loop, and a
// Pool that spawns workers and hands them out round robin.
package worker

import (
	"context"
	"log/slog"

	"github.com/xraph/framejob/job"
	"github.com/xraph/framejob/message"
	"github.com/xraph/framejob/middleware"
)

// Executor runs a single job message through middleware and the
// transformer and builds the result message.
type Executor struct {
	transformer Transformer
	mw          middleware.Middleware
	logger      *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(t Transformer, logger *slog.Logger, mws ...middleware.Middleware) *Executor {
	return &Executor{
		transformer: t,
		mw:          middleware.Chain(mws...),
		logger:      logger,
	}
}

// Execute runs msg on behalf of the worker at index. It reports false
// when the transform failed: in that case there is no result to send and
// the job stays outstanding on the coordinator.
func (e *Executor) Execute(ctx context.Context, index int, msg message.Message) (message.Message, bool) {
	j := &job.Job{ID: msg.ID, Worker: index}

	var res Result
	terminal := func(ctx context.Context) error {
		r, err := e.transformer.Transform(ctx, msg.Payload)
		if err != nil {
			return err
		}
		res = r
		return nil
	}

	if err := e.mw(ctx, j, terminal); err != nil {
		e.logger.Warn("job dropped without result",
			slog.Uint64("job_id", uint64(msg.ID)),
			slog.Int("worker", index),
			slog.String("error", err.Error()),
		)
		return message.Message{}, false
	}

	return message.JobDone(msg.ID, res.Payload.Transfer(res.Transfer...)), true
}
