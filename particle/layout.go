package particle

// Record offsets within a particle.
const (
	OffsetX    = 0
	OffsetY    = 1
	OffsetZ    = 2
	OffsetID   = 3
	OffsetVX   = 4
	OffsetVY   = 5
	OffsetVZ   = 6
	OffsetLife = 7
)

// Stride is the number of floats in a full particle record.
const Stride = 8

// MinSortStride is the smallest stride that still carries an id.
const MinSortStride = OffsetID + 1

// Records returns how many whole records of stride floats fit in data.
func Records(data []float32, stride int) int {
	if stride <= 0 {
		return 0
	}
	return len(data) / stride
}
