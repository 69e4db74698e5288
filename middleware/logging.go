package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/framejob/job"
)

// Logging returns middleware that logs job execution. Successful jobs
// are logged at debug level since there are many per frame.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				slog.Uint64("job_id", uint64(j.ID)),
				slog.Int("worker", j.Worker),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("job completed",
				slog.Uint64("job_id", uint64(j.ID)),
				slog.Int("worker", j.Worker),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
