package worker

import (
	"context"
	"log/slog"

	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/internal/mailbox"
	"github.com/xraph/framejob/message"
)

// State is a worker's lifecycle state as seen by the pool.
type State int

const (
	// StateInitializing means the init handshake has not been acknowledged.
	StateInitializing State = iota
	// StateReady means the worker acknowledged init.
	StateReady
)

// String returns a readable name for s.
func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "initializing"
}

// Worker is one independent execution unit. It owns an unbounded inbox
// and runs Run on its own goroutine. Its state field belongs to the
// coordinator and is never touched by Run.
type Worker struct {
	index  int
	id     id.WorkerID
	inbox  *mailbox.Mailbox[message.Message]
	exec   *Executor
	reply  func(message.Message)
	logger *slog.Logger

	state State
}

func newWorker(index int, exec *Executor, reply func(message.Message), logger *slog.Logger) *Worker {
	wid := id.NewWorkerID()
	return &Worker{
		index:  index,
		id:     wid,
		inbox:  mailbox.New[message.Message](),
		exec:   exec,
		reply:  reply,
		logger: logger.With(slog.String("worker_id", wid.String()), slog.Int("worker", index)),
	}
}

// Index returns the worker's position in its pool.
func (w *Worker) Index() int { return w.index }

// ID returns the worker's unique identifier.
func (w *Worker) ID() id.WorkerID { return w.id }

// State returns the lifecycle state recorded by the pool.
func (w *Worker) State() State { return w.state }

// Send queues msg for the worker. It never blocks and reports false once
// the worker has been closed.
func (w *Worker) Send(msg message.Message) bool { return w.inbox.Push(msg) }

// Backlog returns the number of messages waiting in the inbox.
func (w *Worker) Backlog() int { return w.inbox.Len() }

// Run is the worker message loop. It answers init exactly once, holds
// job messages that arrive before init, runs jobs in arrival order and
// ignores unknown kinds. It returns when the inbox is closed and drained
// or ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	initialized := false
	var held []message.Message

	for {
		msg, ok := w.inbox.Pop(ctx)
		if !ok {
			w.logger.Debug("worker exiting", slog.Int("held", len(held)))
			return nil
		}

		switch msg.Kind {
		case message.KindInit:
			if initialized {
				continue
			}
			initialized = true
			w.reply(message.InitDone(msg.Index))
			for _, m := range held {
				w.runJob(ctx, m)
			}
			held = nil
		case message.KindJob:
			if !initialized {
				held = append(held, msg)
				continue
			}
			w.runJob(ctx, msg)
		default:
			w.logger.Debug("ignoring message", slog.String("kind", msg.Kind.String()))
		}
	}
}

func (w *Worker) runJob(ctx context.Context, msg message.Message) {
	if out, ok := w.exec.Execute(ctx, w.index, msg); ok {
		w.reply(out)
	}
}
