package framejob

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for a framejob engine.
type Config struct {
	// Workers is the number of worker goroutines. Zero makes the engine
	// inert: every submitted job is dropped.
	Workers int `yaml:"workers"`

	// ShutdownTimeout bounds how long Stop waits for workers to drain.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Particles configures the particle demo and benchmarks.
	Particles ParticleConfig `yaml:"particles"`

	// Metrics configures metric export.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ParticleConfig describes the interleaved particle buffer layout.
type ParticleConfig struct {
	// Count is the number of particles simulated.
	Count int `yaml:"count"`

	// Stride is the number of floats per particle record.
	Stride int `yaml:"stride"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// Namespace prefixes Prometheus metric names.
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         max(1, runtime.GOMAXPROCS(0)-1),
		ShutdownTimeout: 5 * time.Second,
		Particles: ParticleConfig{
			Count:  10000,
			Stride: 8,
		},
		Metrics: MetricsConfig{
			Namespace: "framejob",
		},
	}
}

// LoadConfig reads a YAML file and overlays it on DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("framejob: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("framejob: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports configuration values that can never work.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("framejob: workers must be >= 0, got %d", c.Workers)
	}
	if c.Particles.Stride < 4 {
		return fmt.Errorf("framejob: particle stride must be >= 4, got %d", c.Particles.Stride)
	}
	if c.Particles.Count < 0 {
		return fmt.Errorf("framejob: particle count must be >= 0, got %d", c.Particles.Count)
	}
	return nil
}
