package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/framejob/event"
	"github.com/xraph/framejob/message"
	"github.com/xraph/framejob/middleware"
	"github.com/xraph/framejob/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// doubler multiplies every float of the first buffer by two in place and
// moves it back.
var doubler = worker.TransformFunc(func(_ context.Context, p message.Payload) (worker.Result, error) {
	for i, v := range p.Buffer(0).Data() {
		p.Buffer(0).Data()[i] = v * 2
	}
	return worker.Return(p), nil
})

func setupTestPool(t *testing.T, opts ...worker.PoolOption) (*worker.Pool, *event.Bus, chan message.Message) {
	t.Helper()
	bus := event.NewBus()
	replies := make(chan message.Message, 256)
	pool := worker.NewPool(bus, func(m message.Message) { replies <- m }, testLogger(), opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = pool.Stop(ctx)
	})
	return pool, bus, replies
}

func receive(t *testing.T, replies <-chan message.Message) message.Message {
	t.Helper()
	select {
	case m := <-replies:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker reply")
		return message.Message{}
	}
}

func TestPool_EmptyPoolIsInert(t *testing.T) {
	pool, bus, _ := setupTestPool(t)

	require.NoError(t, pool.Initialize(context.Background(), 0, doubler))

	assert.True(t, bus.Fired(event.InitComplete), "empty pool must signal readiness at once")
	assert.True(t, pool.Ready())
	assert.Equal(t, 0, pool.Size())

	_, ok := pool.Allocate()
	assert.False(t, ok)
	idx, ok := pool.SendNext(message.Job(0, message.Payload{}))
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestPool_InitCompleteFiresOnceAfterAllAcks(t *testing.T) {
	var readyCount atomic.Int32
	pool, bus, replies := setupTestPool(t, worker.WithReadyHook(func(n int) {
		assert.Equal(t, 3, n)
	}))
	bus.On(event.InitComplete, func(event.Event) { readyCount.Add(1) })

	require.NoError(t, pool.Initialize(context.Background(), 3, doubler))

	acked := map[int]bool{}
	for range 3 {
		m := receive(t, replies)
		require.Equal(t, message.KindInitDone, m.Kind)
		assert.False(t, bus.Fired(event.InitComplete), "fired before the last ack")
		pool.OnInitAck(m.Index)
		acked[m.Index] = true
	}

	assert.Len(t, acked, 3)
	assert.True(t, pool.Ready())
	for _, w := range pool.Workers() {
		assert.Equal(t, worker.StateReady, w.State())
	}

	pool.OnInitAck(0)
	pool.OnInitAck(17)
	assert.Equal(t, int32(1), readyCount.Load())
}

func TestPool_DuplicateAckDoesNotCountTwice(t *testing.T) {
	pool, bus, replies := setupTestPool(t)
	require.NoError(t, pool.Initialize(context.Background(), 2, doubler))
	receive(t, replies)
	receive(t, replies)

	pool.OnInitAck(0)
	pool.OnInitAck(0)
	assert.False(t, bus.Fired(event.InitComplete))

	pool.OnInitAck(1)
	assert.True(t, bus.Fired(event.InitComplete))
}

func TestPool_RoundRobin(t *testing.T) {
	pool, _, _ := setupTestPool(t)
	require.NoError(t, pool.Initialize(context.Background(), 3, doubler))

	var got []int
	for range 7 {
		w, ok := pool.Allocate()
		require.True(t, ok)
		got = append(got, w.Index())
	}

	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, got)
}

func TestPool_JobRoundTrip(t *testing.T) {
	pool, _, replies := setupTestPool(t)
	require.NoError(t, pool.Initialize(context.Background(), 2, doubler))

	buf := message.Wrap([]float32{1, 2, 3})
	p := message.Payload{Buffers: []*message.Buffer{buf}}
	idx, ok := pool.SendNext(message.Job(5, p.Transfer(buf)))
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.True(t, buf.Detached(), "sender must lose the transferred buffer")

	var done message.Message
	for done.Kind != message.KindJobDone {
		done = receive(t, replies)
	}
	assert.Equal(t, uint32(5), done.ID)
	assert.Equal(t, []float32{2, 4, 6}, done.Payload.Buffer(0).Data())
}

func TestPool_FailingTransformSendsNoResult(t *testing.T) {
	failing := worker.TransformFunc(func(context.Context, message.Payload) (worker.Result, error) {
		return worker.Result{}, errors.New("boom")
	})
	panicking := worker.TransformFunc(func(context.Context, message.Payload) (worker.Result, error) {
		panic("kaboom")
	})

	for name, tr := range map[string]worker.Transformer{"error": failing, "panic": panicking} {
		t.Run(name, func(t *testing.T) {
			pool, _, replies := setupTestPool(t, worker.WithPoolMiddleware(middleware.Recover(testLogger())))
			require.NoError(t, pool.Initialize(context.Background(), 1, tr))
			require.Equal(t, message.KindInitDone, receive(t, replies).Kind)

			pool.SendNext(message.Job(1, message.Payload{}))

			select {
			case m := <-replies:
				t.Fatalf("unexpected reply %v", m.Kind)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestPool_InitializeErrors(t *testing.T) {
	pool, _, _ := setupTestPool(t)

	err := pool.Initialize(context.Background(), -1, doubler)
	assert.ErrorIs(t, err, worker.ErrInvalidCount)

	err = pool.Initialize(context.Background(), 1, nil)
	assert.ErrorIs(t, err, worker.ErrNilTransformer)

	require.NoError(t, pool.Initialize(context.Background(), 1, doubler))
	err = pool.Initialize(context.Background(), 1, doubler)
	assert.ErrorIs(t, err, worker.ErrAlreadyInitialized)
}

func TestPool_StopClosesWorkers(t *testing.T) {
	pool, _, _ := setupTestPool(t)
	require.NoError(t, pool.Initialize(context.Background(), 2, doubler))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))

	for _, w := range pool.Workers() {
		assert.False(t, w.Send(message.Init(w.Index())))
	}
}

func TestPool_SendNextAfterStopReportsFailure(t *testing.T) {
	pool, _, _ := setupTestPool(t)
	require.NoError(t, pool.Initialize(context.Background(), 2, doubler))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))

	idx, ok := pool.SendNext(message.Job(3, message.Payload{}))
	assert.False(t, ok, "closed inbox must not report a successful send")
	assert.GreaterOrEqual(t, idx, 0)
}

func TestPool_StopReturnsAtDeadlineWhenTransformIgnoresContext(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	stuck := worker.TransformFunc(func(context.Context, message.Payload) (worker.Result, error) {
		started <- struct{}{}
		<-release
		return worker.Result{}, nil
	})

	pool, _, _ := setupTestPool(t)
	t.Cleanup(func() { close(release) })
	require.NoError(t, pool.Initialize(context.Background(), 1, stuck))
	_, ok := pool.SendNext(message.Job(1, message.Payload{}))
	require.True(t, ok)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("transform never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	begin := time.Now()
	err := pool.Stop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), time.Second)
}
