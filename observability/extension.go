package observability

import (
	"context"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/framejob/ext"
	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.JobSubmitted      = (*MetricsExtension)(nil)
	_ ext.JobCompleted      = (*MetricsExtension)(nil)
	_ ext.CompletionIgnored = (*MetricsExtension)(nil)
	_ ext.BarrierReleased   = (*MetricsExtension)(nil)
	_ ext.WorkersReady      = (*MetricsExtension)(nil)
)

// MetricsExtension records coordinator lifecycle counts via go-utils
// MetricFactory. Register it as an extension to track submit and
// completion rates, stale completions and barrier releases split by
// fast and slow path.
type MetricsExtension struct {
	JobSubmitted      gu.Counter
	JobCompleted      gu.Counter
	CompletionIgnored gu.Counter
	BarrierFast       gu.Counter
	BarrierSlow       gu.Counter
	WorkersReady      gu.Counter
}

// NewMetricsExtension creates a MetricsExtension using a default metrics collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("framejob/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension with the provided MetricFactory.
// Use gu.NewMetricsCollector for testing.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		JobSubmitted:      factory.Counter("framejob.job.submitted"),
		JobCompleted:      factory.Counter("framejob.job.completed"),
		CompletionIgnored: factory.Counter("framejob.job.completion_ignored"),
		BarrierFast:       factory.Counter("framejob.barrier.fast"),
		BarrierSlow:       factory.Counter("framejob.barrier.slow"),
		WorkersReady:      factory.Counter("framejob.workers.ready"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobSubmitted implements ext.JobSubmitted.
func (m *MetricsExtension) OnJobSubmitted(_ context.Context, _ *job.Job) error {
	m.JobSubmitted.Inc()
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(_ context.Context, _ *job.Job, _ time.Duration) error {
	m.JobCompleted.Inc()
	return nil
}

// OnCompletionIgnored implements ext.CompletionIgnored.
func (m *MetricsExtension) OnCompletionIgnored(_ context.Context, _ uint32) error {
	m.CompletionIgnored.Inc()
	return nil
}

// OnBarrierReleased implements ext.BarrierReleased.
func (m *MetricsExtension) OnBarrierReleased(_ context.Context, _ id.FrameID, _ int, waited time.Duration) error {
	if barrierPath(waited) == "fast" {
		m.BarrierFast.Inc()
	} else {
		m.BarrierSlow.Inc()
	}
	return nil
}

// OnWorkersReady counts pool initializations that reached readiness.
func (m *MetricsExtension) OnWorkersReady(_ context.Context, _ int) error {
	m.WorkersReady.Inc()
	return nil
}
