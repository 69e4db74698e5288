package particle

import (
	"context"
	"fmt"

	"github.com/xraph/framejob/message"
	"github.com/xraph/framejob/worker"
)

// Job parameter names understood by Integrator.
const (
	ParamDT     = "dt"
	ParamStride = "stride"
)

// Integrator advances particles by one time step. It reads buffer 0 of
// the job payload as whole records, moves each live particle by its
// velocity times dt and ages it by dt. Particles whose life has run out
// stay where they are with life clamped at zero.
type Integrator struct{}

var _ worker.Transformer = Integrator{}

// Transform implements worker.Transformer. The buffer is updated in
// place and moved back with the result.
func (Integrator) Transform(ctx context.Context, p message.Payload) (worker.Result, error) {
	stride := int(p.Param(ParamStride, Stride))
	if stride < Stride {
		return worker.Result{}, fmt.Errorf("integrate: %w: %d", ErrStride, stride)
	}
	dt := float32(p.Param(ParamDT, 0))

	buf := p.Buffer(0)
	if buf == nil || buf.Detached() {
		return worker.Result{}, fmt.Errorf("integrate: %w: missing particle buffer", ErrShortBuffer)
	}
	data := buf.Data()

	for i := range Records(data, stride) {
		if i%4096 == 0 && ctx.Err() != nil {
			return worker.Result{}, ctx.Err()
		}
		Step(data[i*stride:(i+1)*stride], dt)
	}
	return worker.Return(p), nil
}

// Step advances a single record by dt.
func Step(rec []float32, dt float32) {
	life := rec[OffsetLife]
	if life <= 0 {
		rec[OffsetLife] = 0
		return
	}
	rec[OffsetX] += rec[OffsetVX] * dt
	rec[OffsetY] += rec[OffsetVY] * dt
	rec[OffsetZ] += rec[OffsetVZ] * dt
	rec[OffsetLife] = max(0, life-dt)
}
