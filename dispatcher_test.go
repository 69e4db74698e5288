package framejob_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/framejob"
	"github.com/xraph/framejob/ext"
	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/message"
)

// fakePool records sent messages and hands out indices round robin.
type fakePool struct {
	size   int
	cursor int
	sent   []message.Message
	acks   []int
	closed bool
}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) SendNext(msg message.Message) (int, bool) {
	if p.size == 0 {
		return -1, false
	}
	idx := p.cursor
	p.cursor = (p.cursor + 1) % p.size
	if p.closed {
		return idx, false
	}
	p.sent = append(p.sent, msg)
	return idx, true
}

func (p *fakePool) OnInitAck(index int) { p.acks = append(p.acks, index) }

// barrierRecorder captures BarrierReleased events.
type barrierRecorder struct {
	frames []id.FrameID
	jobs   []int
}

func (r *barrierRecorder) Name() string { return "barrier-recorder" }

func (r *barrierRecorder) OnBarrierReleased(_ context.Context, frame id.FrameID, jobs int, _ time.Duration) error {
	r.frames = append(r.frames, frame)
	r.jobs = append(r.jobs, jobs)
	return nil
}

func newTestDispatcher(t *testing.T, size int, exts ...ext.Extension) (*framejob.Dispatcher, *fakePool) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := ext.NewRegistry(logger)
	for _, e := range exts {
		reg.Register(e)
	}
	pool := &fakePool{size: size}
	d, err := framejob.New(pool, framejob.WithLogger(logger), framejob.WithExtensions(reg))
	require.NoError(t, err)
	return d, pool
}

func TestNew_RequiresPool(t *testing.T) {
	_, err := framejob.New(nil)
	assert.ErrorIs(t, err, framejob.ErrNoPool)
}

func TestSubmit_EmptyPoolDropsJob(t *testing.T) {
	d, pool := newTestDispatcher(t, 0)
	ctx := context.Background()

	called := false
	d.Submit(ctx, func(message.Payload) { called = true }, message.Payload{})
	d.OnComplete(ctx, 0, message.Payload{})

	assert.False(t, called)
	assert.Empty(t, pool.sent)
	assert.Equal(t, 0, d.Outstanding())
}

func TestSubmit_ClosedPoolDoesNotRecordJob(t *testing.T) {
	d, pool := newTestDispatcher(t, 2)
	pool.closed = true
	ctx := context.Background()

	called := false
	d.Submit(ctx, func(message.Payload) { called = true }, message.Payload{})
	assert.Equal(t, 0, d.Outstanding())

	released := false
	require.NoError(t, d.RegisterBarrier(ctx, func() { released = true }))
	assert.True(t, released, "a dropped job must not hold the barrier")
	assert.False(t, called)
	assert.Empty(t, pool.sent)
}

func TestSubmit_SendsJobAndTransfersBuffers(t *testing.T) {
	d, pool := newTestDispatcher(t, 2)
	ctx := context.Background()

	moved := message.Wrap([]float32{1, 2, 3})
	copied := message.Wrap([]float32{4})
	d.Submit(ctx, nil, message.Payload{Buffers: []*message.Buffer{moved, copied}}, moved)
	d.Submit(ctx, nil, message.Payload{})
	d.Submit(ctx, nil, message.Payload{})

	require.Len(t, pool.sent, 3)
	for i, msg := range pool.sent {
		assert.Equal(t, message.KindJob, msg.Kind)
		assert.Equal(t, uint32(i), msg.ID)
	}
	assert.True(t, moved.Detached())
	assert.False(t, copied.Detached())
	assert.Equal(t, []float32{1, 2, 3}, pool.sent[0].Payload.Buffer(0).Data())
	assert.Equal(t, 3, d.Outstanding())
	assert.Equal(t, []uint32{0, 1, 2}, d.OutstandingIDs())
}

func TestOnComplete_InvokesCallbackWithResult(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	ctx := context.Background()

	var got []float32
	d.Submit(ctx, func(p message.Payload) { got = p.Buffer(0).Data() }, message.Payload{})
	d.OnComplete(ctx, 0, message.Payload{Buffers: []*message.Buffer{message.Wrap([]float32{9})}})

	assert.Equal(t, []float32{9}, got)
	assert.Equal(t, 0, d.Outstanding())
}

func TestOnComplete_UnknownIDHasNoEffect(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	ctx := context.Background()

	calls := 0
	d.Submit(ctx, func(message.Payload) { calls++ }, message.Payload{})
	contRan := false
	require.NoError(t, d.RegisterBarrier(ctx, func() { contRan = true }))

	d.OnComplete(ctx, 42, message.Payload{})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, d.Outstanding())
	assert.True(t, d.Pending())
	assert.False(t, contRan)

	d.OnComplete(ctx, 0, message.Payload{})
	d.OnComplete(ctx, 0, message.Payload{})
	assert.Equal(t, 1, calls, "duplicate completion must be ignored")
	assert.True(t, contRan)
}

func TestRegisterBarrier_FastPathRunsBeforeReturn(t *testing.T) {
	rec := &barrierRecorder{}
	d, _ := newTestDispatcher(t, 2, rec)
	ctx := context.Background()
	before := d.Frame()

	ran := false
	require.NoError(t, d.RegisterBarrier(ctx, func() { ran = true }))

	assert.True(t, ran)
	assert.False(t, d.Pending())
	assert.NotEqual(t, before, d.Frame(), "a new frame starts at each barrier")
	require.Len(t, rec.frames, 1)
	assert.Equal(t, before, rec.frames[0])
	assert.Equal(t, 0, rec.jobs[0])
}

func TestRegisterBarrier_SlowPathRunsAfterLastCompletion(t *testing.T) {
	rec := &barrierRecorder{}
	d, pool := newTestDispatcher(t, 3, rec)
	ctx := context.Background()

	const k = 4
	for range k {
		d.Submit(ctx, nil, message.Payload{})
	}

	runs := 0
	require.NoError(t, d.RegisterBarrier(ctx, func() { runs++ }))
	assert.True(t, d.Pending())

	// Completions arrive out of submission order.
	for i, jobID := range []uint32{2, 0, 3, 1} {
		assert.Equal(t, 0, runs, "continuation ran after %d of %d completions", i, k)
		d.OnComplete(ctx, jobID, message.Payload{})
	}

	assert.Equal(t, 1, runs)
	assert.False(t, d.Pending())
	require.Equal(t, []int{k}, rec.jobs)

	// The id counter starts over for the next frame.
	d.Submit(ctx, nil, message.Payload{})
	assert.Equal(t, uint32(0), pool.sent[len(pool.sent)-1].ID)
}

func TestRegisterBarrier_CoversJobsSubmittedWhilePending(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	ctx := context.Background()

	d.Submit(ctx, nil, message.Payload{})
	ran := false
	require.NoError(t, d.RegisterBarrier(ctx, func() { ran = true }))
	d.Submit(ctx, nil, message.Payload{})

	d.OnComplete(ctx, 0, message.Payload{})
	assert.False(t, ran)
	d.OnComplete(ctx, 1, message.Payload{})
	assert.True(t, ran)
}

func TestRegisterBarrier_SecondPendingIsRejected(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	ctx := context.Background()
	d.Submit(ctx, nil, message.Payload{})

	first, second := false, false
	require.NoError(t, d.RegisterBarrier(ctx, func() { first = true }))
	err := d.RegisterBarrier(ctx, func() { second = true })
	assert.ErrorIs(t, err, framejob.ErrBarrierPending)

	d.OnComplete(ctx, 0, message.Payload{})
	assert.True(t, first)
	assert.False(t, second)
}

func TestRegisterBarrier_NilContinuation(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	err := d.RegisterBarrier(context.Background(), nil)
	assert.True(t, errors.Is(err, framejob.ErrNilContinuation))
}

func TestRegisterBarrier_ContinuationMayStartNextFrame(t *testing.T) {
	d, pool := newTestDispatcher(t, 1)
	ctx := context.Background()
	d.Submit(ctx, nil, message.Payload{})

	frames := 0
	var endFrame func()
	endFrame = func() {
		frames++
		if frames < 3 {
			d.Submit(ctx, nil, message.Payload{})
			require.NoError(t, d.RegisterBarrier(ctx, endFrame))
		}
	}
	require.NoError(t, d.RegisterBarrier(ctx, endFrame))

	for d.Outstanding() > 0 {
		last := pool.sent[len(pool.sent)-1]
		d.OnComplete(ctx, last.ID, message.Payload{})
	}

	assert.Equal(t, 3, frames)
	for _, msg := range pool.sent {
		assert.Equal(t, uint32(0), msg.ID, "each frame restarts ids at zero")
	}
}

func TestHandleMessage_Routes(t *testing.T) {
	d, pool := newTestDispatcher(t, 1)
	ctx := context.Background()

	done := false
	d.Submit(ctx, func(message.Payload) { done = true }, message.Payload{})

	d.HandleMessage(ctx, message.InitDone(0))
	d.HandleMessage(ctx, message.Message{Kind: message.Kind(99)})
	d.HandleMessage(ctx, message.Job(0, message.Payload{}))
	assert.False(t, done)

	d.HandleMessage(ctx, message.JobDone(0, message.Payload{}))

	assert.Equal(t, []int{0}, pool.acks)
	assert.True(t, done)
}
