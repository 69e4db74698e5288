// Package event provides a minimal in-process publish/subscribe bus used
// to announce lifecycle signals such as [InitComplete].
package event

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type subscriber struct {
	name    string
	handler Handler
	once    bool
	done    atomic.Bool
}

// Bus delivers fired events to subscribers registered under the same
// name. It is safe for concurrent use. Handlers run synchronously on the
// goroutine that calls Fire, in no particular order.
type Bus struct {
	subscribers *xsync.Map[uint64, *subscriber]
	nextID      atomic.Uint64

	mu      sync.Mutex
	fired   map[string]bool
	waiters map[string][]chan struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: xsync.NewMap[uint64, *subscriber](),
		fired:       make(map[string]bool),
		waiters:     make(map[string][]chan struct{}),
	}
}

// Subscription is the handle returned by On and Once.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Unsubscribe stops further deliveries. It is safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.subscribers.Delete(s.id)
	}
}

// On registers h for every future Fire of name.
func (b *Bus) On(name string, h Handler) Subscription {
	return b.subscribe(name, h, false)
}

// Once registers h for the next Fire of name only.
func (b *Bus) Once(name string, h Handler) Subscription {
	return b.subscribe(name, h, true)
}

func (b *Bus) subscribe(name string, h Handler, once bool) Subscription {
	subID := b.nextID.Add(1)
	b.subscribers.Store(subID, &subscriber{name: name, handler: h, once: once})
	return Subscription{bus: b, id: subID}
}

// Fire delivers name to its subscribers and releases its waiters.
func (b *Bus) Fire(name string) {
	evt := Event{Name: name, FiredAt: time.Now()}

	b.mu.Lock()
	b.fired[name] = true
	waiters := b.waiters[name]
	delete(b.waiters, name)
	b.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}

	b.subscribers.Range(func(subID uint64, sub *subscriber) bool {
		if sub.name != name {
			return true
		}
		if sub.once {
			if !sub.done.CompareAndSwap(false, true) {
				return true
			}
			b.subscribers.Delete(subID)
		}
		sub.handler(evt)
		return true
	})
}

// Wait returns a channel that is closed when name fires. If name has
// already fired at least once, the channel is closed already.
func (b *Bus) Wait(name string) <-chan struct{} {
	ch := make(chan struct{})

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fired[name] {
		close(ch)
		return ch
	}
	b.waiters[name] = append(b.waiters[name], ch)
	return ch
}

// Fired reports whether name has fired at least once.
func (b *Bus) Fired(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired[name]
}
