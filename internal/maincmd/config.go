package maincmd

import "github.com/caarlos0/env/v6"

// RuntimeConfig holds the VM tunables that make sense to leave out of the
// command line and instead pick up from the environment, following the
// teacher's own env-backed configuration convention.
type RuntimeConfig struct {
	// GCHeapGrowthFactor multiplies the bytes still allocated after a sweep
	// (only string contents are counted) to pick the next collection
	// threshold.
	GCHeapGrowthFactor float64 `env:"CLOX_GC_HEAP_GROWTH" envDefault:"2.0"`

	// StressGC forces a collection before every single allocation, at a
	// steep performance cost, to help shake out missing GC roots.
	StressGC bool `env:"CLOX_STRESS_GC" envDefault:"false"`
}

func loadRuntimeConfig() (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := env.Parse(&cfg); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}
