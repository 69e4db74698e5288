package framejob

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/framejob/ext"
	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/job"
	"github.com/xraph/framejob/message"
)

// WorkerPool is what the Dispatcher needs from a pool of workers.
// worker.Pool satisfies it.
type WorkerPool interface {
	// Size returns the number of workers.
	Size() int
	// SendNext queues msg on the next worker in round-robin order and
	// returns its index.
	SendNext(msg message.Message) (int, bool)
	// OnInitAck records a worker's init handshake.
	OnInitAck(index int)
}

// Dispatcher is the coordinator for per-frame jobs. It assigns job ids,
// keeps the job table, routes results to callbacks and runs the frame
// continuation once the table drains.
//
// Dispatcher is not safe for concurrent use. All methods, and every
// callback and continuation they invoke, run on the coordinator
// goroutine.
type Dispatcher struct {
	pool       WorkerPool
	table      *job.Table
	logger     *slog.Logger
	extensions *ext.Registry

	frame     id.FrameID
	frameJobs int

	continuation func()
	pendingSince time.Time
}

// New creates a Dispatcher that sends jobs to pool.
func New(pool WorkerPool, opts ...Option) (*Dispatcher, error) {
	if pool == nil {
		return nil, ErrNoPool
	}
	d := &Dispatcher{
		pool:   pool,
		table:  job.NewTable(),
		logger: slog.Default(),
		frame:  id.NewFrameID(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.extensions == nil {
		d.extensions = ext.NewRegistry(d.logger)
	}
	return d, nil
}

// Submit sends a job to the next worker. Buffers in transfer are moved
// to the worker and the caller's handles are detached; other buffers in
// payload are copied. cb runs on the coordinator goroutine with the
// result.
//
// With an empty pool Submit does nothing: cb is never invoked. The same
// holds once the pool has stopped accepting messages; the job is not
// recorded, so it cannot hold back a barrier.
func (d *Dispatcher) Submit(ctx context.Context, cb job.Callback, payload message.Payload, transfer ...*message.Buffer) {
	if d.pool.Size() == 0 {
		return
	}

	j := &job.Job{
		ID:          d.table.NextID(),
		Frame:       d.frame,
		Callback:    cb,
		SubmittedAt: time.Now(),
	}
	d.table.Put(j)
	d.frameJobs++

	w, ok := d.pool.SendNext(message.Job(j.ID, payload.Transfer(transfer...)))
	if !ok {
		d.table.Take(j.ID)
		d.frameJobs--
		d.logger.Warn("job dropped, worker not accepting messages",
			slog.Uint64("job_id", uint64(j.ID)),
			slog.Int("worker", w),
		)
		return
	}
	j.Worker = w
	d.extensions.EmitJobSubmitted(ctx, j)
}

// OnComplete delivers the result of job jobID. Results for ids that are
// not outstanding are ignored. When the last outstanding job completes
// and a continuation is pending, the continuation runs.
func (d *Dispatcher) OnComplete(ctx context.Context, jobID uint32, result message.Payload) {
	j, ok := d.table.Take(jobID)
	if !ok {
		d.logger.Debug("ignoring completion for unknown job", slog.Uint64("job_id", uint64(jobID)))
		d.extensions.EmitCompletionIgnored(ctx, jobID)
		return
	}

	if j.Callback != nil {
		j.Callback(result)
	}
	d.extensions.EmitJobCompleted(ctx, j, time.Since(j.SubmittedAt))

	if d.table.Len() == 0 && d.continuation != nil {
		d.release(ctx)
	}
}

// RegisterBarrier runs cont once every job submitted so far has
// completed. If nothing is outstanding, cont runs before RegisterBarrier
// returns. Otherwise it is held and run from the OnComplete call that
// drains the table; jobs submitted in the meantime are waited on too.
//
// Either way the job id counter starts over and a new frame begins. Only
// one continuation may be pending; a second registration returns
// ErrBarrierPending and leaves the first in place.
func (d *Dispatcher) RegisterBarrier(ctx context.Context, cont func()) error {
	if cont == nil {
		return ErrNilContinuation
	}
	if d.continuation != nil {
		return ErrBarrierPending
	}

	if d.table.Len() == 0 {
		frame, jobs := d.frame, d.frameJobs
		if err := d.nextFrame(); err != nil {
			return err
		}
		d.extensions.EmitBarrierReleased(ctx, frame, jobs, 0)
		cont()
		return nil
	}

	d.continuation = cont
	d.pendingSince = time.Now()
	return nil
}

// HandleMessage routes a worker reply. Unknown and coordinator-bound
// kinds are ignored.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg message.Message) {
	switch msg.Kind {
	case message.KindInitDone:
		d.pool.OnInitAck(msg.Index)
	case message.KindJobDone:
		d.OnComplete(ctx, msg.ID, msg.Payload)
	default:
		d.logger.Debug("ignoring worker message", slog.String("kind", msg.Kind.String()))
	}
}

// Outstanding returns the number of jobs awaiting a result.
func (d *Dispatcher) Outstanding() int { return d.table.Len() }

// OutstandingIDs returns the ids of jobs awaiting a result.
func (d *Dispatcher) OutstandingIDs() []uint32 { return d.table.IDs() }

// Pending reports whether a continuation is waiting for jobs to drain.
func (d *Dispatcher) Pending() bool { return d.continuation != nil }

// Frame returns the current frame's identifier.
func (d *Dispatcher) Frame() id.FrameID { return d.frame }

func (d *Dispatcher) release(ctx context.Context) {
	cont := d.continuation
	d.continuation = nil
	waited := time.Since(d.pendingSince)
	frame, jobs := d.frame, d.frameJobs

	if err := d.nextFrame(); err != nil {
		// Unreachable: release only runs on an empty table.
		d.logger.Error("frame reset failed", slog.String("error", err.Error()))
	}

	d.logger.Debug("barrier released",
		slog.String("frame", frame.String()),
		slog.Int("jobs", jobs),
		slog.Duration("waited", waited),
	)
	d.extensions.EmitBarrierReleased(ctx, frame, jobs, waited)
	cont()
}

func (d *Dispatcher) nextFrame() error {
	if err := d.table.Reset(); err != nil {
		return err
	}
	d.frame = id.NewFrameID()
	d.frameJobs = 0
	return nil
}
