package vectune

import (
	"sort"

	"github.com/vectune/vectune/internal/graph"
	"github.com/vectune/vectune/internal/persist"
	"github.com/vectune/vectune/internal/quant"
	"github.com/vectune/vectune/internal/vecstore"
)

// Checkpoint writes the index's current state to its configured
// persistence path. A no-op, successfully, if no path is configured.
func (idx *Index) Checkpoint() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.cfg.PersistencePath == "" {
		return nil
	}
	return idx.checkpointLocked()
}

// checkpointLocked flushes the buffer first (Open Question decision:
// every live NodeId must be graph-resident at checkpoint time, so the
// persisted format never needs a separate buffer-entries section),
// then writes the three sibling files and truncates the WAL.
func (idx *Index) checkpointLocked() error {
	if idx.buf.Len() > 0 {
		if err := idx.flushLocked(); err != nil {
			return err
		}
	}

	liveIDs := make([]uint64, 0, idx.liveCount)
	for id := range idx.idToExt {
		liveIDs = append(liveIDs, id)
	}
	sort.Slice(liveIDs, func(i, j int) bool { return liveIDs[i] < liveIDs[j] })

	totalRows := uint64(0)
	if idx.vecs != nil {
		totalRows = uint64(idx.vecs.Len())
	}

	snap := persist.Snapshot{
		Dim:       idx.cfg.Dimension,
		TotalRows: totalRows,
		Row: func(id uint64) []float32 {
			return idx.vecs.Row(id)
		},
		ExternalID: func(id uint64) string { return idx.idToExt[id] },
		Metadata:   func(id uint64) map[string]string { return idx.meta[id] },
		LiveIDs:    liveIDs,
		Graph:      idx.g,
	}
	if err := persist.Checkpoint(idx.cfg.PersistencePath, snap); err != nil {
		return errIoError(idx.cfg.PersistencePath, err)
	}

	idx.metrics.Checkpoints.Inc()
	idx.metrics.CheckpointSize.Observe(float64(totalRows*uint64(idx.cfg.Dimension)*4 + idx.g.ByteSize()))
	if idx.wal != nil {
		if err := idx.wal.Truncate(); err != nil {
			return errIoError(idx.cfg.PersistencePath+persist.WALSuffix, err)
		}
	}
	return nil
}

// recover loads a prior checkpoint (if any) at cfg.PersistencePath and
// replays any WAL records written after it, per spec.md §4.7. Called
// from New, and from applyConfig when a pre-insert Configure changes
// persistence_path or use_wal; either way it replaces idx.g with a
// freshly constructed graph.
func (idx *Index) recover() error {
	rec, err := persist.Open(idx.cfg.PersistencePath)
	if err != nil {
		return errCorruptState(err.Error(), idx.cfg.PersistencePath)
	}

	idx.g = graph.New(graph.Config{
		M:              idx.cfg.M,
		MMax0:          idx.cfg.MMax0,
		EfConstruction: idx.cfg.EfConstruction,
		Seed:           idx.cfg.Seed,
	}, indexSpace{idx})

	if !rec.Found {
		return idx.replayWAL()
	}

	idx.cfg.Dimension = rec.Dim
	idx.vecs = vecstore.New(rec.Dim)
	for id := uint64(0); id < uint64(len(rec.Vectors)); id++ {
		row, ok := rec.Vectors[id]
		if !ok {
			continue
		}
		if _, err := idx.vecs.Push(row); err != nil {
			return errAllocationFailed("vecstore", err)
		}
		if m, live := rec.Meta[id]; live {
			idx.extToID[m.ExternalID] = id
			idx.idToExt[id] = m.ExternalID
			idx.meta[id] = m.Metadata
			idx.liveCount++
			idx.inserted = true
		} else {
			idx.vecs.Tombstone(id)
		}
	}

	persist.RestoreGraph(idx.g, rec)

	if idx.scalarStore != nil || idx.binaryStore != nil {
		for id := range idx.idToExt {
			idx.requantizeOnLoad(id)
		}
	}

	return idx.replayWAL()
}

// requantizeOnLoad populates the quantized store for a recovered node
// when quantization is active; checkpoints persist only raw vectors,
// so quantized representations are rebuilt on open rather than
// carried in the file format.
func (idx *Index) requantizeOnLoad(id uint64) {
	switch idx.cfg.Quantization {
	case quant.Scalar8:
		idx.scalarStore.Put(id, idx.vecs.Get(id))
	case quant.Binary:
		idx.binaryStore.Put(id, idx.vecs.Get(id))
	}
}

// replayWAL applies any records written after the last checkpoint.
// Safe to call when use_wal is off or no WAL file exists yet: OpenWAL
// creates one on demand, and a fresh WAL has nothing to replay.
func (idx *Index) replayWAL() error {
	if !idx.cfg.UseWAL || idx.cfg.PersistencePath == "" {
		return nil
	}
	w, err := persist.OpenWAL(idx.cfg.PersistencePath + persist.WALSuffix)
	if err != nil {
		return errIoError(idx.cfg.PersistencePath+persist.WALSuffix, err)
	}
	records, err := w.Replay()
	if err != nil {
		w.Close()
		return errCorruptState(err.Error(), idx.cfg.PersistencePath+persist.WALSuffix)
	}
	idx.wal = w

	for _, rec := range records {
		switch rec.Op {
		case persist.OpAdd, persist.OpUpsert:
			if idx.vecs == nil {
				idx.setDimension(len(rec.Vector))
			}
			if _, exists := idx.extToID[rec.ExternalID]; exists {
				id := idx.extToID[rec.ExternalID]
				_ = idx.vecs.Overwrite(id, rec.Vector)
				idx.meta[id] = rec.Metadata
				if idx.buf.Contains(id) {
					idx.buf.Remove(id)
					idx.buf.Push(id, idx.vecs.Get(id), rec.Metadata)
				}
				idx.requantize(id, rec.Vector)
				continue
			}
			if _, err := idx.writeNewEntry(rec.ExternalID, rec.Vector, rec.Metadata); err != nil {
				return err
			}
		case persist.OpDelete:
			id, exists := idx.extToID[rec.ExternalID]
			if !exists {
				continue
			}
			if idx.buf.Contains(id) {
				idx.buf.Remove(id)
			} else {
				idx.g.Delete(id)
				idx.deleteFromQuantStores(id)
			}
			idx.vecs.Tombstone(id)
			delete(idx.extToID, rec.ExternalID)
			delete(idx.idToExt, id)
			delete(idx.meta, id)
			idx.liveCount--
		}
	}
	return nil
}
