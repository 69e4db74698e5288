package particle

import (
	"fmt"
	"math"
	"slices"
)

// Keys maps a particle id to its sort key.
type Keys interface {
	Key(id int) float32
}

// KeyFunc adapts a function to Keys.
type KeyFunc func(id int) float32

// Key calls f.
func (f KeyFunc) Key(id int) float32 { return f(id) }

// Distances is a dense id-indexed key table. Ids outside the table sort
// last.
type Distances []float32

// Key returns the distance recorded for id, or +Inf.
func (d Distances) Key(id int) float32 {
	if id < 0 || id >= len(d) {
		return float32(math.Inf(1))
	}
	return d[id]
}

// DistanceMap is a sparse key table. Missing ids sort last.
type DistanceMap map[int]float32

// Key returns the distance recorded for id, or +Inf.
func (m DistanceMap) Key(id int) float32 {
	if v, ok := m[id]; ok {
		return v
	}
	return float32(math.Inf(1))
}

// MaxID bounds particle ids in a dense Distances table. It is the
// largest range over which float32 holds every integer exactly.
const MaxID = 1 << 24

// ComputeDistances records, for each of the count particles in buffer,
// the squared distance from eye, indexed by particle id. dst is reused
// and grown once to the largest id seen; unseen ids are +Inf. Ids must
// be below MaxID. The updated table is returned.
func ComputeDistances(dst Distances, buffer []float32, count, stride int, eye [3]float32) (Distances, error) {
	if count < 0 {
		return dst, ErrCount
	}
	if stride < MinSortStride {
		return dst, ErrStride
	}
	if len(buffer) < count*stride {
		return dst, ErrShortBuffer
	}

	size := len(dst)
	for i := range count {
		f := buffer[i*stride+OffsetID]
		if f < 0 {
			continue
		}
		if f >= MaxID || math.IsNaN(float64(f)) {
			return dst, fmt.Errorf("%w: record %d has id %v", ErrID, i, f)
		}
		if id := int(f); id >= size {
			size = id + 1
		}
	}

	inf := float32(math.Inf(1))
	dst = slices.Grow(dst, size-len(dst))[:size]
	for i := range dst {
		dst[i] = inf
	}

	for i := range count {
		rec := buffer[i*stride : (i+1)*stride]
		if rec[OffsetID] < 0 {
			continue
		}
		id := int(rec[OffsetID])
		dx := rec[OffsetX] - eye[0]
		dy := rec[OffsetY] - eye[1]
		dz := rec[OffsetZ] - eye[2]
		dst[id] = dx*dx + dy*dy + dz*dz
	}
	return dst, nil
}
