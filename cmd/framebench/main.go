// Command framebench runs a particle simulation on a framejob engine and
// reports per-frame timings. Each frame integrates the particles on the
// worker pool, waits on the frame barrier, then sorts the particles back
// to front by distance from a fixed viewpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/xraph/framejob"
	"github.com/xraph/framejob/engine"
	"github.com/xraph/framejob/message"
	"github.com/xraph/framejob/particle"
)

type options struct {
	configPath  string
	frames      int
	workers     int
	particles   int
	dt          float64
	metricsAddr string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "framebench",
		Short:        "Run a particle frame loop on a framejob worker pool",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	f.IntVarP(&opts.frames, "frames", "n", 60, "number of frames to run")
	f.IntVarP(&opts.workers, "workers", "w", -1, "worker count (overrides config)")
	f.IntVarP(&opts.particles, "particles", "p", -1, "particle count (overrides config)")
	f.Float64Var(&opts.dt, "dt", 1.0/60, "time step per frame in seconds")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func loadConfig(opts options) (framejob.Config, error) {
	cfg := framejob.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = framejob.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if opts.workers >= 0 {
		cfg.Workers = opts.workers
	}
	if opts.particles >= 0 {
		cfg.Particles.Count = opts.particles
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Particles.Stride < particle.Stride {
		return cfg, fmt.Errorf("framebench: particle stride must be >= %d, got %d", particle.Stride, cfg.Particles.Stride)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	if opts.metricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
		defer srv.Close()
	}

	eng, err := engine.New(particle.Integrator{},
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithPrometheus(reg),
	)
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := eng.Stop(context.Background()); err != nil {
			logger.Warn("engine stop", slog.String("error", err.Error()))
		}
	}()

	select {
	case <-eng.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	sim := newSimulation(cfg.Particles.Count, cfg.Particles.Stride)
	var total time.Duration
	for frame := range opts.frames {
		start := time.Now()
		if err := sim.step(ctx, eng, cfg.Workers, opts.dt); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		elapsed := time.Since(start)
		total += elapsed
		logger.Debug("frame done", slog.Int("frame", frame), slog.Duration("elapsed", elapsed))
	}

	if opts.frames > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d frames, %d particles, %d workers: avg %s/frame\n",
			opts.frames, cfg.Particles.Count, cfg.Workers, total/time.Duration(opts.frames))
	}
	return nil
}

// simulation is the coordinator-side particle state.
type simulation struct {
	count  int
	stride int
	state  []float32
	old    []float32
	keys   particle.Distances
	sorter particle.Sorter
	eye    [3]float32
}

func newSimulation(count, stride int) *simulation {
	rng := rand.New(rand.NewPCG(1, 1))
	s := &simulation{
		count:  count,
		stride: stride,
		state:  make([]float32, count*stride),
		old:    make([]float32, count*stride),
		eye:    [3]float32{0, 0, -10},
	}
	for i := range count {
		rec := s.state[i*stride : (i+1)*stride]
		rec[particle.OffsetX] = rng.Float32()*2 - 1
		rec[particle.OffsetY] = rng.Float32()*2 - 1
		rec[particle.OffsetZ] = rng.Float32()*2 - 1
		rec[particle.OffsetID] = float32(i)
		if stride >= particle.Stride {
			rec[particle.OffsetVX] = rng.Float32() - 0.5
			rec[particle.OffsetVY] = rng.Float32() - 0.5
			rec[particle.OffsetVZ] = rng.Float32() - 0.5
			rec[particle.OffsetLife] = 1 + rng.Float32()*9
		}
	}
	return s
}

// step runs one frame: integrate on the workers, wait, then sort.
func (s *simulation) step(ctx context.Context, eng *engine.Engine, workers int, dt float64) error {
	chunks, err := particle.Split(s.state, s.count, s.stride, workers)
	if err != nil {
		return err
	}

	var mergeErr error
	for _, c := range chunks {
		offset := c.Offset
		err := eng.Submit(func(p message.Payload) {
			if _, err := particle.Merge(s.state, offset, p.Buffer(0)); err != nil && mergeErr == nil {
				mergeErr = err
			}
		}, message.Payload{
			Buffers: []*message.Buffer{c.Buffer},
			Params: map[string]float64{
				particle.ParamDT:     dt,
				particle.ParamStride: float64(s.stride),
			},
		}, c.Buffer)
		if err != nil {
			return err
		}
	}
	if err := eng.Wait(ctx); err != nil {
		return err
	}
	if mergeErr != nil {
		return mergeErr
	}

	return s.sortByDepth()
}

// sortByDepth orders the particles back to front, furthest first.
func (s *simulation) sortByDepth() error {
	var err error
	if s.keys, err = particle.ComputeDistances(s.keys, s.state, s.count, s.stride, s.eye); err != nil {
		return err
	}
	return s.sorter.Sort(s.count, s.stride, particle.KeyFunc(func(id int) float32 {
		return -s.keys.Key(id)
	}), s.state, s.old)
}
