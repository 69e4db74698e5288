package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/framejob/event"
	"github.com/xraph/framejob/message"
	"github.com/xraph/framejob/middleware"
)

// Pool owns a fixed set of workers. Initialize spawns them, OnInitAck
// tracks the handshake, and Allocate hands them out round robin.
//
// Except for Stop, Pool methods must be called from the coordinator
// goroutine. Initialize may run before the coordinator starts.
type Pool struct {
	bus    *event.Bus
	reply  func(message.Message)
	logger *slog.Logger
	mws    []middleware.Middleware

	onReady func(count int)

	workers     []*Worker
	cursor      int
	awaiting    int
	initialized bool
	ready       bool

	group  *errgroup.Group
	cancel context.CancelFunc
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolMiddleware appends middleware to every worker's job chain.
func WithPoolMiddleware(mws ...middleware.Middleware) PoolOption {
	return func(p *Pool) { p.mws = append(p.mws, mws...) }
}

// WithReadyHook sets a function called once, right before InitComplete
// fires, with the number of workers.
func WithReadyHook(fn func(count int)) PoolOption {
	return func(p *Pool) { p.onReady = fn }
}

// NewPool creates an empty pool. Worker replies are passed to reply,
// which must be safe to call from any goroutine and must not block.
func NewPool(bus *event.Bus, reply func(message.Message), logger *slog.Logger, opts ...PoolOption) *Pool {
	p := &Pool{
		bus:    bus,
		reply:  reply,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize spawns count workers running t and sends each its init
// handshake. With count == 0 the pool stays inert and InitComplete fires
// immediately.
func (p *Pool) Initialize(ctx context.Context, count int, t Transformer) error {
	if p.initialized {
		return ErrAlreadyInitialized
	}
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if t == nil {
		return ErrNilTransformer
	}
	p.initialized = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	exec := NewExecutor(t, p.logger, p.mws...)

	p.logger.Info("worker pool starting", slog.Int("workers", count))

	p.workers = make([]*Worker, 0, count)
	for i := range count {
		w := newWorker(i, exec, p.reply, p.logger)
		p.workers = append(p.workers, w)
		p.group.Go(func() error { return w.Run(ctx) })
		w.Send(message.Init(i))
		p.awaiting++
	}

	if count == 0 {
		p.logger.Warn("worker pool is empty, jobs will be dropped")
		p.markReady()
	}
	return nil
}

// OnInitAck records the handshake acknowledgment of the worker at index.
// Duplicate and out-of-range acknowledgments are ignored.
func (p *Pool) OnInitAck(index int) {
	if index < 0 || index >= len(p.workers) {
		p.logger.Debug("ignoring init ack for unknown worker", slog.Int("worker", index))
		return
	}
	w := p.workers[index]
	if w.state == StateReady {
		return
	}
	w.state = StateReady
	p.awaiting--
	if p.awaiting == 0 {
		p.markReady()
	}
}

func (p *Pool) markReady() {
	if p.ready {
		return
	}
	p.ready = true
	p.logger.Info("worker pool ready", slog.Int("workers", len(p.workers)))
	if p.onReady != nil {
		p.onReady(len(p.workers))
	}
	p.bus.Fire(event.InitComplete)
}

// Allocate returns the next worker in round-robin order, or false when
// the pool has no workers.
func (p *Pool) Allocate() (*Worker, bool) {
	if len(p.workers) == 0 {
		return nil, false
	}
	w := p.workers[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.workers)
	return w, true
}

// SendNext allocates a worker and queues msg on it. It returns the index
// of the chosen worker and false if the pool is empty or the worker's
// inbox is already closed.
func (p *Pool) SendNext(msg message.Message) (int, bool) {
	w, ok := p.Allocate()
	if !ok {
		return -1, false
	}
	return w.index, w.Send(msg)
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Ready reports whether every worker has acknowledged init.
func (p *Pool) Ready() bool { return p.ready }

// Workers returns the pool's workers in index order.
func (p *Pool) Workers() []*Worker { return p.workers }

// Stop closes every worker inbox and waits for the workers to drain and
// exit. If ctx expires first, the workers are cancelled and Stop returns
// ctx.Err() without waiting further; a transform that ignores its context
// keeps its goroutine until it returns.
func (p *Pool) Stop(ctx context.Context) error {
	if p.group == nil {
		return nil
	}

	p.logger.Info("worker pool stopping")
	for _, w := range p.workers {
		w.inbox.Close()
	}

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	select {
	case err := <-done:
		p.cancel()
		return err
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling workers")
		p.cancel()
		return ctx.Err()
	}
}
