package particle

import "github.com/xraph/framejob/message"

// Chunk is a run of whole records copied out of a larger buffer.
// Offset is the index of the chunk's first float in the source.
type Chunk struct {
	Offset int
	Buffer *message.Buffer
}

// Split copies the first count records of data into at most parts
// chunks of near-equal size. Each chunk owns its buffer and can be moved
// to a worker.
func Split(data []float32, count, stride, parts int) ([]Chunk, error) {
	if count < 0 {
		return nil, ErrCount
	}
	if stride <= 0 {
		return nil, ErrStride
	}
	if len(data) < count*stride {
		return nil, ErrShortBuffer
	}
	if count == 0 || parts <= 0 {
		return nil, nil
	}
	parts = min(parts, count)

	size := count / parts
	extra := count % parts
	chunks := make([]Chunk, 0, parts)
	start := 0
	for i := range parts {
		n := size
		if i < extra {
			n++
		}
		buf := make([]float32, n*stride)
		copy(buf, data[start*stride:(start+n)*stride])
		chunks = append(chunks, Chunk{Offset: start * stride, Buffer: message.Wrap(buf)})
		start += n
	}
	return chunks, nil
}

// Merge copies b back into dst at offset and returns the number of
// floats copied.
func Merge(dst []float32, offset int, b *message.Buffer) (int, error) {
	data := b.Data()
	if offset < 0 || offset+len(data) > len(dst) {
		return 0, ErrShortBuffer
	}
	return copy(dst[offset:], data), nil
}
