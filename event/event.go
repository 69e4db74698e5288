package event

import "time"

// InitComplete is fired once every worker in a pool has acknowledged its
// init handshake. A pool with zero workers fires it immediately.
const InitComplete = "initComplete"

// Event is a named occurrence delivered to subscribers.
type Event struct {
	Name    string
	FiredAt time.Time
}

// Handler receives fired events.
type Handler func(Event)
