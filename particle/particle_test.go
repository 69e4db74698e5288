package particle_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/framejob/message"
	"github.com/xraph/framejob/particle"
)

func TestKeys_MissingIDIsInfinite(t *testing.T) {
	inf := float32(math.Inf(1))

	assert.Equal(t, inf, particle.Distances{1}.Key(3))
	assert.Equal(t, inf, particle.Distances{1}.Key(-1))
	assert.Equal(t, float32(1), particle.Distances{1}.Key(0))
	assert.Equal(t, inf, particle.DistanceMap{}.Key(0))
}

func TestComputeDistances(t *testing.T) {
	buf := []float32{
		1, 0, 0, 2, 0, 0, 0, 1,
		0, 3, 4, 0, 0, 0, 0, 1,
	}

	d, err := particle.ComputeDistances(particle.Distances{9, 9, 9, 9}, buf, 2, particle.Stride, [3]float32{})
	require.NoError(t, err)

	require.Len(t, d, 4)
	assert.Equal(t, float32(25), d[0])
	assert.True(t, math.IsInf(float64(d[1]), 1), "stale entries are cleared")
	assert.Equal(t, float32(1), d[2])

	_, err = particle.ComputeDistances(nil, buf, 3, particle.Stride, [3]float32{})
	assert.ErrorIs(t, err, particle.ErrShortBuffer)
}

func TestComputeDistances_RejectsHugeID(t *testing.T) {
	buf := []float32{1, 1, 1, 2e8, 0, 0, 0, 1}

	prev := particle.Distances{5}
	d, err := particle.ComputeDistances(prev, buf, 1, particle.Stride, [3]float32{})
	assert.ErrorIs(t, err, particle.ErrID)
	assert.Len(t, d, 1, "table is not grown on error")

	buf[particle.OffsetID] = float32(math.NaN())
	_, err = particle.ComputeDistances(nil, buf, 1, particle.Stride, [3]float32{})
	assert.ErrorIs(t, err, particle.ErrID)

	buf[particle.OffsetID] = particle.MaxID
	_, err = particle.ComputeDistances(nil, buf, 1, particle.Stride, [3]float32{})
	assert.ErrorIs(t, err, particle.ErrID)

	buf[particle.OffsetID] = 1000
	d, err = particle.ComputeDistances(prev, buf, 1, particle.Stride, [3]float32{})
	require.NoError(t, err)
	assert.Len(t, d, 1001)
	assert.Equal(t, float32(3), d[1000])
	assert.True(t, math.IsInf(float64(d[0]), 1))
}

func TestSplitMerge(t *testing.T) {
	const count, stride = 7, 4
	data := make([]float32, count*stride)
	for i := range data {
		data[i] = float32(i)
	}

	chunks, err := particle.Split(data, count, stride, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 3*stride, chunks[0].Buffer.Len())
	assert.Equal(t, 2*stride, chunks[1].Buffer.Len())
	assert.Equal(t, 2*stride, chunks[2].Buffer.Len())

	out := make([]float32, len(data))
	for _, c := range chunks {
		_, err := particle.Merge(out, c.Offset, c.Buffer)
		require.NoError(t, err)
	}
	assert.Equal(t, data, out)

	chunks, err = particle.Split(data, 2, stride, 8)
	require.NoError(t, err)
	assert.Len(t, chunks, 2, "never more chunks than records")

	_, err = particle.Merge(make([]float32, 3), 0, message.NewBuffer(4))
	assert.ErrorIs(t, err, particle.ErrShortBuffer)
}

func TestIntegrator(t *testing.T) {
	data := []float32{
		0, 0, 0, 0, 1, 2, 3, 1,
		5, 5, 5, 1, 1, 1, 1, 0,
	}
	payload := message.Payload{
		Buffers: []*message.Buffer{message.Wrap(data)},
		Params:  map[string]float64{particle.ParamDT: 0.5},
	}

	res, err := particle.Integrator{}.Transform(context.Background(), payload)
	require.NoError(t, err)

	out := res.Payload.Buffer(0).Data()
	assert.Equal(t, []float32{0.5, 1, 1.5, 0, 1, 2, 3, 0.5}, out[:8])
	assert.Equal(t, []float32{5, 5, 5, 1, 1, 1, 1, 0}, out[8:], "dead particles stay put")
	assert.Len(t, res.Transfer, 1)
}

func TestIntegrator_Errors(t *testing.T) {
	_, err := particle.Integrator{}.Transform(context.Background(), message.Payload{})
	assert.ErrorIs(t, err, particle.ErrShortBuffer)

	_, err = particle.Integrator{}.Transform(context.Background(), message.Payload{
		Buffers: []*message.Buffer{message.NewBuffer(8)},
		Params:  map[string]float64{particle.ParamStride: 4},
	})
	assert.ErrorIs(t, err, particle.ErrStride)
}
