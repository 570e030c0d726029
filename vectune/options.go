package vectune

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vectune/vectune/internal/distance"
	"github.com/vectune/vectune/internal/quant"
)

// Option configures an Index at construction time, or at Configure
// time before the first insert. Grounded on the functional-options
// pattern the teacher uses for database/collection configuration.
type Option func(*Config) error

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WithDistance selects the distance function; default L2.
func WithDistance(metric string) Option {
	return func(c *Config) error {
		c.Distance = distance.ParseMetric(metric)
		return nil
	}
}

// WithM sets the max neighbors per node above layer 0; default 16,
// clamped to the documented range 4..64.
func WithM(m int) Option {
	return func(c *Config) error {
		c.M = clampInt(m, 4, 64)
		return nil
	}
}

// WithMMax0 sets the max neighbors at layer 0; default 2*M. Final
// clamping to M..4*M happens at construction time, once M is settled,
// since options may be supplied in either order.
func WithMMax0(mMax0 int) Option {
	return func(c *Config) error {
		if mMax0 < 1 {
			mMax0 = 1
		}
		c.MMax0 = mMax0
		return nil
	}
}

// WithEfConstruction sets the construction-time candidate pool width;
// default 200, clamped to 16..1000.
func WithEfConstruction(ef int) Option {
	return func(c *Config) error {
		c.EfConstruction = clampInt(ef, 16, 1000)
		return nil
	}
}

// WithEfSearch sets the default search-time candidate pool width;
// default 50, clamped to 1..1000 (the caller's K further bounds it at
// search time). Unlike the other options, this remains mutable after
// the first insert.
func WithEfSearch(ef int) Option {
	return func(c *Config) error {
		c.EfSearch = clampInt(ef, 1, 1000)
		return nil
	}
}

// WithBufferCapacity sets the write buffer's bound B; default 10 000,
// clamped to 1..1_000_000.
func WithBufferCapacity(capacity int) Option {
	return func(c *Config) error {
		c.BufferCapacity = clampInt(capacity, 1, 1_000_000)
		return nil
	}
}

// WithQuantization selects the quantization mode ("none", "scalar8",
// "binary"); immutable once any vector has been inserted.
func WithQuantization(mode string) Option {
	return func(c *Config) error {
		c.Quantization = quant.ParseMode(mode)
		return nil
	}
}

// WithSeed sets the pseudo-random seed used for layer sampling.
func WithSeed(seed int64) Option {
	return func(c *Config) error {
		c.Seed = seed
		return nil
	}
}

// WithPersistencePath sets the base path checkpoint()/open() use;
// immutable once any vector has been inserted.
func WithPersistencePath(path string) Option {
	return func(c *Config) error {
		c.PersistencePath = path
		return nil
	}
}

// WithWAL enables or disables the write-ahead log; default false.
func WithWAL(enabled bool) Option {
	return func(c *Config) error {
		c.UseWAL = enabled
		return nil
	}
}

// WithLogger directs the component logger's output at w instead of
// its default destination; nil restores the default.
func WithLogger(w io.Writer) Option {
	return func(c *Config) error {
		c.LogWriter = w
		return nil
	}
}

// WithMetrics registers the coordinator's counters/histograms against
// reg. A nil reg (the default) still builds every metric but never
// registers them against any registry, so they exist for internal
// consistency without being scraped — the equivalent of disabling
// metrics export.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) error {
		c.MetricsRegisterer = reg
		return nil
	}
}
