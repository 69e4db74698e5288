package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/framejob"
	"github.com/xraph/framejob/event"
	"github.com/xraph/framejob/ext"
	"github.com/xraph/framejob/internal/mailbox"
	"github.com/xraph/framejob/job"
	"github.com/xraph/framejob/message"
	mw "github.com/xraph/framejob/middleware"
	"github.com/xraph/framejob/observability"
	"github.com/xraph/framejob/worker"
)

const instrumentationName = "github.com/xraph/framejob"

const (
	stateNew int32 = iota
	stateRunning
	stateStopped
)

// task is one unit of coordinator work: a worker reply or a posted
// function.
type task struct {
	msg message.Message
	fn  func(context.Context, *framejob.Dispatcher)
}

// Engine owns a worker pool and a Dispatcher and runs the Dispatcher on
// a single coordinator goroutine fed by an unbounded mailbox. Worker
// replies and posted functions are handled in arrival order, so the
// Dispatcher needs no locking.
type Engine struct {
	cfg         framejob.Config
	logger      *slog.Logger
	transformer worker.Transformer

	bus        *event.Bus
	extensions *ext.Registry
	exts       []ext.Extension
	mws        []mw.Middleware

	pool  *worker.Pool
	disp  *framejob.Dispatcher
	inbox *mailbox.Mailbox[task]

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	promReg        prometheus.Registerer

	// Lifecycle counters (optional; nil means a private collector).
	metricFactory gu.MetricFactory

	lifecycle sync.Mutex
	state     atomic.Int32
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates an Engine whose workers run t.
func New(t worker.Transformer, opts ...Option) (*Engine, error) {
	if t == nil {
		return nil, worker.ErrNilTransformer
	}

	eng := &Engine{
		cfg:         framejob.DefaultConfig(),
		logger:      slog.Default(),
		transformer: t,
		bus:         event.NewBus(),
		inbox:       mailbox.New[task](),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if err := eng.cfg.Validate(); err != nil {
		return nil, err
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	eng.registerExtensions()

	// Build default middleware stack: recover → tracing → metrics → logging.
	defaultMws := []mw.Middleware{
		mw.Recover(eng.logger),
		eng.tracingMiddleware(),
		eng.metricsMiddleware(),
		mw.Logging(eng.logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	eng.pool = worker.NewPool(eng.bus, eng.deliver, eng.logger,
		worker.WithPoolMiddleware(allMws...),
		worker.WithReadyHook(func(count int) {
			eng.extensions.EmitWorkersReady(context.Background(), count)
		}),
	)

	disp, err := framejob.New(eng.pool,
		framejob.WithLogger(eng.logger),
		framejob.WithExtensions(eng.extensions),
	)
	if err != nil {
		return nil, err
	}
	eng.disp = disp

	return eng, nil
}

func (eng *Engine) registerExtensions() {
	var obsExt *observability.MetricsExtension
	if eng.metricFactory != nil {
		obsExt = observability.NewMetricsExtensionWithFactory(eng.metricFactory)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	if eng.promReg != nil {
		eng.extensions.Register(observability.NewPrometheus(eng.promReg, eng.cfg.Metrics.Namespace))
	}
	for _, e := range eng.exts {
		eng.extensions.Register(e)
	}
}

func (eng *Engine) tracingMiddleware() mw.Middleware {
	if eng.tracerProvider != nil {
		return mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	}
	return mw.Tracing()
}

func (eng *Engine) metricsMiddleware() mw.Middleware {
	if eng.meterProvider != nil {
		return mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
	}
	return mw.Metrics()
}

// deliver queues a worker reply for the coordinator.
func (eng *Engine) deliver(msg message.Message) {
	if !eng.inbox.Push(task{msg: msg}) {
		eng.logger.Debug("dropping worker reply after stop", slog.String("kind", msg.Kind.String()))
	}
}

// Start spawns the workers and the coordinator goroutine. The engine
// runs until Stop is called or ctx is cancelled. Readiness is signalled
// through Ready once every worker has acknowledged init.
func (eng *Engine) Start(ctx context.Context) error {
	eng.lifecycle.Lock()
	defer eng.lifecycle.Unlock()

	switch eng.state.Load() {
	case stateRunning:
		return framejob.ErrAlreadyStarted
	case stateStopped:
		return framejob.ErrStopped
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := eng.pool.Initialize(runCtx, eng.cfg.Workers, eng.transformer); err != nil {
		cancel()
		return fmt.Errorf("start worker pool: %w", err)
	}
	eng.cancel = cancel
	eng.state.Store(stateRunning)

	go eng.loop(runCtx)
	return nil
}

func (eng *Engine) loop(ctx context.Context) {
	defer close(eng.done)
	for {
		t, ok := eng.inbox.Pop(ctx)
		if !ok {
			return
		}
		if t.fn != nil {
			t.fn(ctx, eng.disp)
			continue
		}
		eng.disp.HandleMessage(ctx, t.msg)
	}
}

// Stop shuts the engine down. Workers finish the jobs already queued on
// them, their results are delivered, and then the coordinator exits.
// Jobs still outstanding at that point are abandoned and logged. Stop
// returns within Config.ShutdownTimeout: on expiry the workers are
// cancelled and a transform still running is left to finish on its own.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.lifecycle.Lock()
	defer eng.lifecycle.Unlock()

	if !eng.state.CompareAndSwap(stateRunning, stateStopped) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, eng.cfg.ShutdownTimeout)
	defer cancel()

	poolErr := eng.pool.Stop(ctx)
	eng.inbox.Close()

	var timeoutErr error
	select {
	case <-eng.done:
	case <-ctx.Done():
		eng.logger.Warn("coordinator shutdown timed out, cancelling")
		if poolErr == nil {
			timeoutErr = ctx.Err()
		}
		eng.cancel()
		<-eng.done
	}
	eng.cancel()

	if n := eng.disp.Outstanding(); n > 0 {
		eng.logger.Warn("jobs abandoned at shutdown",
			slog.Int("jobs", n),
			slog.Bool("barrier_pending", eng.disp.Pending()),
		)
	}
	eng.extensions.EmitShutdown(ctx)
	eng.logger.Info("engine stopped")

	return errors.Join(poolErr, timeoutErr)
}

// Post queues fn to run on the coordinator goroutine. fn may use the
// Dispatcher freely and must not block.
func (eng *Engine) Post(fn func(ctx context.Context, d *framejob.Dispatcher)) error {
	if err := eng.running(); err != nil {
		return err
	}
	if !eng.inbox.Push(task{fn: fn}) {
		return framejob.ErrStopped
	}
	return nil
}

func (eng *Engine) running() error {
	switch eng.state.Load() {
	case stateNew:
		return framejob.ErrNotStarted
	case stateStopped:
		return framejob.ErrStopped
	}
	return nil
}

// Submit sends a job from any goroutine. Buffers in transfer are
// detached from the caller before Submit returns; other buffers are
// copied. cb runs on the coordinator goroutine.
func (eng *Engine) Submit(cb job.Callback, payload message.Payload, transfer ...*message.Buffer) error {
	if err := eng.running(); err != nil {
		return err
	}
	p := payload.Transfer(transfer...)
	return eng.Post(func(ctx context.Context, d *framejob.Dispatcher) {
		d.Submit(ctx, cb, p, p.Buffers...)
	})
}

// Barrier runs cont on the coordinator goroutine once every job
// submitted before it has completed. A barrier posted while another is
// pending is dropped with a warning.
func (eng *Engine) Barrier(cont func()) error {
	return eng.Post(func(ctx context.Context, d *framejob.Dispatcher) {
		if err := d.RegisterBarrier(ctx, cont); err != nil {
			eng.logger.Warn("barrier rejected", slog.String("error", err.Error()))
		}
	})
}

// Wait blocks until every job submitted before it has completed. It
// returns framejob.ErrBarrierPending if another barrier is waiting.
func (eng *Engine) Wait(ctx context.Context) error {
	errc := make(chan error, 1)
	err := eng.Post(func(ctx context.Context, d *framejob.Dispatcher) {
		if err := d.RegisterBarrier(ctx, func() { errc <- nil }); err != nil {
			errc <- err
		}
	})
	if err != nil {
		return err
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-eng.done:
		return framejob.ErrStopped
	}
}

// Ready returns a channel closed once every worker has acknowledged
// init.
func (eng *Engine) Ready() <-chan struct{} { return eng.bus.Wait(event.InitComplete) }

// Events returns the engine's event bus.
func (eng *Engine) Events() *event.Bus { return eng.bus }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Config returns the engine configuration.
func (eng *Engine) Config() framejob.Config { return eng.cfg }

// Workers returns the number of workers in the pool.
func (eng *Engine) Workers() int { return eng.cfg.Workers }
