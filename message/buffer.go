package message

// Buffer is an owned float32 slice that can be moved between goroutines.
// Moving a buffer detaches the sender's handle: its Data becomes nil and
// it must not be used again. This gives transfer-list semantics without
// sharing memory between the coordinator and a worker.
type Buffer struct {
	data     []float32
	detached bool
}

// NewBuffer allocates a zeroed buffer of n floats.
func NewBuffer(n int) *Buffer {
	return &Buffer{data: make([]float32, n)}
}

// Wrap takes ownership of data. The caller must not keep other references.
func Wrap(data []float32) *Buffer {
	return &Buffer{data: data}
}

// Data returns the backing slice, or nil once the buffer is detached.
func (b *Buffer) Data() []float32 {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the number of floats held, 0 when detached.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Detached reports whether ownership of the data has moved elsewhere.
func (b *Buffer) Detached() bool {
	return b != nil && b.detached
}

// Move returns a new handle that owns b's data and detaches b.
// Moving an already detached buffer yields another detached handle.
func (b *Buffer) Move() *Buffer {
	if b == nil {
		return nil
	}
	if b.detached {
		return &Buffer{detached: true}
	}
	moved := &Buffer{data: b.data}
	b.data = nil
	b.detached = true
	return moved
}

// Clone returns an independent copy of b.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	if b.detached {
		return &Buffer{detached: true}
	}
	data := make([]float32, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data}
}
