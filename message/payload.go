package message

import "maps"

// Payload is the body of a job or a job result.
type Payload struct {
	Buffers []*Buffer
	Params  map[string]float64
}

// Buffer returns the i-th buffer or nil when out of range.
func (p Payload) Buffer(i int) *Buffer {
	if i < 0 || i >= len(p.Buffers) {
		return nil
	}
	return p.Buffers[i]
}

// Param returns the named parameter, or def when it is absent.
func (p Payload) Param(name string, def float64) float64 {
	if v, ok := p.Params[name]; ok {
		return v
	}
	return def
}

// Transfer prepares p to cross to another goroutine. Buffers named in
// list are moved (their original handles are detached, even when they do
// not appear in p), all other buffers are cloned and Params is copied.
// The returned payload shares no memory with the sender.
func (p Payload) Transfer(list ...*Buffer) Payload {
	moved := make(map[*Buffer]*Buffer, len(list))
	for _, b := range list {
		if b == nil {
			continue
		}
		if _, ok := moved[b]; !ok {
			moved[b] = b.Move()
		}
	}

	out := Payload{Params: maps.Clone(p.Params)}
	if len(p.Buffers) > 0 {
		out.Buffers = make([]*Buffer, len(p.Buffers))
	}
	for i, b := range p.Buffers {
		if m, ok := moved[b]; ok {
			out.Buffers[i] = m
			continue
		}
		out.Buffers[i] = b.Clone()
	}
	return out
}
