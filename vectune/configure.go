package vectune

import (
	"github.com/vectune/vectune/internal/buffer"
	"github.com/vectune/vectune/internal/distance"
	"github.com/vectune/vectune/internal/graph"
	"github.com/vectune/vectune/internal/obs"
	"github.com/vectune/vectune/internal/persist"
	"github.com/vectune/vectune/internal/quant"
)

// Configure applies opts to the running Index. Before the first
// insert, every option takes effect. After the first insert, only
// ef_search may change (it's mutable at any time per spec.md §6);
// anything else returns ConfigurationFrozen naming the offending
// option.
func (idx *Index) Configure(opts ...Option) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	next := idx.cfg
	for _, opt := range opts {
		if err := opt(&next); err != nil {
			return err
		}
	}
	if next.MMax0 > 0 {
		next.MMax0 = clampInt(next.MMax0, next.M, 4*next.M)
	}

	if !idx.inserted {
		return idx.applyConfig(next)
	}

	if name, changed := firstFrozenChange(idx.cfg, next); changed {
		return errConfigurationFrozen(name)
	}
	idx.cfg.EfSearch = next.EfSearch
	return nil
}

// applyConfig installs next wholesale, rebuilding any component whose
// shape depends on a changed parameter. Only reachable before the
// first insert, when the graph, buffer, and quant stores are all
// still empty.
func (idx *Index) applyConfig(next Config) error {
	old := idx.cfg
	idx.cfg = next

	if next.Distance != old.Distance {
		idx.kernels = distance.For(next.Distance)
	}
	if next.BufferCapacity != old.BufferCapacity {
		idx.buf = buffer.New(next.BufferCapacity)
	}
	if next.M != old.M || next.MMax0 != old.MMax0 || next.EfConstruction != old.EfConstruction || next.Seed != old.Seed {
		idx.g = graph.New(graph.Config{M: next.M, MMax0: next.MMax0, EfConstruction: next.EfConstruction, Seed: next.Seed}, indexSpace{idx})
	}
	if next.Quantization != old.Quantization {
		idx.scalarStore, idx.binaryStore = nil, nil
		switch next.Quantization {
		case quant.Scalar8:
			idx.scalarStore = quant.NewScalar8Store()
		case quant.Binary:
			idx.binaryStore = quant.NewBinaryStore()
		}
	}
	if next.LogWriter != old.LogWriter {
		idx.log = obs.Component(obs.NewLogger(next.LogWriter), "vectune")
	}
	if next.MetricsRegisterer != old.MetricsRegisterer {
		idx.metrics = obs.NewMetrics(next.MetricsRegisterer)
	}

	// persistence_path/use_wal are configurable pre-insert too; re-run
	// the same open-then-recover path New takes, since nothing has
	// been inserted yet for a fresh recovery to disturb.
	if next.PersistencePath != old.PersistencePath || next.UseWAL != old.UseWAL {
		if idx.wal != nil {
			if err := idx.wal.Close(); err != nil {
				return errIoError(old.PersistencePath+persist.WALSuffix, err)
			}
			idx.wal = nil
		}
		if next.PersistencePath != "" {
			if err := idx.recover(); err != nil {
				return err
			}
		}
	}
	return nil
}

// firstFrozenChange reports the name of the first option (other than
// ef_search) whose value differs between a and b.
func firstFrozenChange(a, b Config) (string, bool) {
	switch {
	case a.M != b.M:
		return "M", true
	case a.MMax0 != b.MMax0:
		return "M_max0", true
	case a.EfConstruction != b.EfConstruction:
		return "ef_construction", true
	case a.BufferCapacity != b.BufferCapacity:
		return "buffer_capacity", true
	case a.Quantization != b.Quantization:
		return "quantization", true
	case a.Distance != b.Distance:
		return "distance", true
	case a.Seed != b.Seed:
		return "seed", true
	case a.PersistencePath != b.PersistencePath:
		return "persistence_path", true
	case a.UseWAL != b.UseWAL:
		return "use_wal", true
	case a.LogWriter != b.LogWriter:
		return "log_writer", true
	case a.MetricsRegisterer != b.MetricsRegisterer:
		return "metrics_registerer", true
	default:
		return "", false
	}
}
