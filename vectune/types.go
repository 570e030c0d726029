package vectune

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vectune/vectune/internal/distance"
	"github.com/vectune/vectune/internal/memstat"
	"github.com/vectune/vectune/internal/quant"
)

// defaultSeed is the engine's implementation-defined default for
// layer sampling when the caller doesn't configure one.
const defaultSeed = 0x5EED

// Metadata is a string-keyed, string-valued attribute bag attached to
// an entry. A nil Metadata means "no attributes".
type Metadata map[string]string

// Filter is a set of equality constraints evaluated against an
// entry's Metadata after search, never during graph traversal.
type Filter map[string]string

func (f Filter) matches(md Metadata) bool {
	for k, v := range f {
		if md == nil || md[k] != v {
			return false
		}
	}
	return true
}

// Result is one search hit.
type Result struct {
	ExternalID string
	Distance   float32
	Metadata   Metadata
}

// Stats reports the coordinator's current shape and byte usage, per
// spec.md §4.5/§4.8.
type Stats struct {
	Count       int
	Dimension   int
	BufferFill  int
	GraphTop    int
	MemoryUsage memstat.Usage
}

// Config holds every configurable option, per spec.md §6. Zero value
// is never used directly; DefaultConfig supplies the documented
// defaults.
type Config struct {
	Dimension int // inferred from the first insert, not user-settable

	Distance distance.Metric

	M              int
	MMax0          int
	EfConstruction int
	EfSearch       int

	BufferCapacity int

	Quantization quant.Mode

	Seed int64

	PersistencePath string
	UseWAL          bool

	// LogWriter overrides where the component logger writes; nil
	// means obs.NewLogger's own default.
	LogWriter io.Writer
	// MetricsRegisterer, when set, is the registry counters/histograms
	// are registered against; nil means they're created but not
	// exposed (see obs.NewMetrics), which is how metrics are disabled.
	MetricsRegisterer prometheus.Registerer
}

// DefaultConfig returns the documented default configuration.
func DefaultConfig() Config {
	return Config{
		Distance:       distance.L2,
		M:              16,
		MMax0:          32,
		EfConstruction: 200,
		EfSearch:       50,
		BufferCapacity: 10000,
		Quantization:   quant.None,
		Seed:           defaultSeed,
	}
}
