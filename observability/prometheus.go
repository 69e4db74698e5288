package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/framejob/ext"
	"github.com/xraph/framejob/id"
	"github.com/xraph/framejob/job"
)

var (
	_ ext.Extension         = (*PrometheusCollector)(nil)
	_ ext.JobSubmitted      = (*PrometheusCollector)(nil)
	_ ext.JobCompleted      = (*PrometheusCollector)(nil)
	_ ext.CompletionIgnored = (*PrometheusCollector)(nil)
	_ ext.BarrierReleased   = (*PrometheusCollector)(nil)
	_ ext.WorkersReady      = (*PrometheusCollector)(nil)
	_ ext.Shutdown          = (*PrometheusCollector)(nil)
)

// PrometheusCollector is an extension that exports coordinator lifecycle
// events as Prometheus metrics. Metrics are registered lazily on the
// first event.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	submitted    *prometheus.CounterVec
	completed    *prometheus.CounterVec
	ignored      prometheus.Counter
	latency      prometheus.Histogram
	barriers     *prometheus.CounterVec
	barrierWait  prometheus.Histogram
	frameJobs    prometheus.Histogram
	workersReady prometheus.Gauge
}

// NewPrometheus creates a Prometheus-backed collector.
//
// reg defaults to prometheus.DefaultRegisterer and namespace to
// "framejob" when empty.
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "framejob"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.submitted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "job",
			Name:      "submitted_total",
			Help:      "Jobs sent to workers by worker index.",
		}, []string{"worker"})

		p.completed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "job",
			Name:      "completed_total",
			Help:      "Job results delivered to callbacks by worker index.",
		}, []string{"worker"})

		p.ignored = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "job",
			Name:      "completions_ignored_total",
			Help:      "Results for job ids that were not outstanding.",
		})

		p.latency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "job",
			Name:      "latency_seconds",
			Help:      "Time from submission to callback in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs .. ~0.8s
		})

		p.barriers = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "barrier",
			Name:      "released_total",
			Help:      "Frame continuations run by path (fast, slow).",
		}, []string{"path"})

		p.barrierWait = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "barrier",
			Name:      "wait_seconds",
			Help:      "Time a continuation waited for jobs to drain in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		})

		p.frameJobs = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "barrier",
			Name:      "frame_jobs",
			Help:      "Jobs submitted during each released frame.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		})

		p.workersReady = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "workers",
			Name:      "ready",
			Help:      "Workers that acknowledged init.",
		})

		p.reg.MustRegister(p.submitted)
		p.reg.MustRegister(p.completed)
		p.reg.MustRegister(p.ignored)
		p.reg.MustRegister(p.latency)
		p.reg.MustRegister(p.barriers)
		p.reg.MustRegister(p.barrierWait)
		p.reg.MustRegister(p.frameJobs)
		p.reg.MustRegister(p.workersReady)
	})
}

// Name implements ext.Extension.
func (p *PrometheusCollector) Name() string { return "prometheus-metrics" }

// OnJobSubmitted implements ext.JobSubmitted.
func (p *PrometheusCollector) OnJobSubmitted(_ context.Context, j *job.Job) error {
	p.ensureRegistered()
	p.submitted.WithLabelValues(workerLabel(j.Worker)).Inc()
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (p *PrometheusCollector) OnJobCompleted(_ context.Context, j *job.Job, elapsed time.Duration) error {
	p.ensureRegistered()
	p.completed.WithLabelValues(workerLabel(j.Worker)).Inc()
	p.latency.Observe(elapsed.Seconds())
	return nil
}

// OnCompletionIgnored implements ext.CompletionIgnored.
func (p *PrometheusCollector) OnCompletionIgnored(_ context.Context, _ uint32) error {
	p.ensureRegistered()
	p.ignored.Inc()
	return nil
}

// OnBarrierReleased implements ext.BarrierReleased.
func (p *PrometheusCollector) OnBarrierReleased(_ context.Context, _ id.FrameID, jobs int, waited time.Duration) error {
	p.ensureRegistered()
	p.barriers.WithLabelValues(barrierPath(waited)).Inc()
	p.barrierWait.Observe(waited.Seconds())
	p.frameJobs.Observe(float64(jobs))
	return nil
}

// OnWorkersReady implements ext.WorkersReady.
func (p *PrometheusCollector) OnWorkersReady(_ context.Context, count int) error {
	p.ensureRegistered()
	p.workersReady.Set(float64(count))
	return nil
}

// OnShutdown implements ext.Shutdown.
func (p *PrometheusCollector) OnShutdown(_ context.Context) error {
	p.ensureRegistered()
	p.workersReady.Set(0)
	return nil
}

// workerLabel formats a worker index; jobs never sent carry -1.
func workerLabel(index int) string {
	if index < 0 {
		return "none"
	}
	return strconv.Itoa(index)
}

// barrierPath labels a release as "fast" when the continuation never
// waited.
func barrierPath(waited time.Duration) string {
	if waited == 0 {
		return "fast"
	}
	return "slow"
}
