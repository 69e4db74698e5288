package particle

import (
	"cmp"
	"slices"
)

type entry struct {
	source int
	key    float32
}

// Sorter reorders interleaved particle buffers by a per-particle key.
// Its scratch space grows to the largest count seen and is reused, so a
// warm Sorter does not allocate. The zero value is ready to use.
//
// A Sorter is not safe for concurrent use.
type Sorter struct {
	scratch []entry
}

// Sort permutes the first count records of buffer so their keys are non
// decreasing. Records with equal keys keep their relative order. old
// must hold at least count*stride floats; it receives a copy of the
// unsorted records and is otherwise scratch.
func (s *Sorter) Sort(count, stride int, keys Keys, buffer, old []float32) error {
	if count < 0 {
		return ErrCount
	}
	if stride < MinSortStride {
		return ErrStride
	}
	n := count * stride
	if len(buffer) < n || len(old) < n {
		return ErrShortBuffer
	}
	if count == 0 {
		return nil
	}

	if len(s.scratch) < count {
		s.scratch = append(s.scratch, make([]entry, count-len(s.scratch))...)
	}
	entries := s.scratch[:count]
	for i := range entries {
		entries[i] = entry{source: i, key: keys.Key(int(buffer[i*stride+OffsetID]))}
	}

	// The permutation reads arbitrary source slots, so it works from a copy.
	copy(old[:n], buffer[:n])

	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.key, b.key)
	})

	for i, e := range entries {
		copy(buffer[i*stride:(i+1)*stride], old[e.source*stride:(e.source+1)*stride])
	}
	return nil
}

// Capacity returns the scratch high-water mark.
func (s *Sorter) Capacity() int { return len(s.scratch) }
