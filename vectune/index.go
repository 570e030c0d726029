// Package vectune is an embedded vector similarity search engine: an
// HNSW-style proximity graph over a bounded write buffer, with
// optional scalar-8 or binary quantization and file-backed
// persistence. It targets single-process, single-writer/many-reader
// use; see Index for the public contract.
package vectune

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vectune/vectune/internal/buffer"
	"github.com/vectune/vectune/internal/distance"
	"github.com/vectune/vectune/internal/graph"
	"github.com/vectune/vectune/internal/obs"
	"github.com/vectune/vectune/internal/persist"
	"github.com/vectune/vectune/internal/quant"
	"github.com/vectune/vectune/internal/vecstore"
)

// Index is the coordinator: it owns the vector store, the optional
// quantized stores, the write buffer, the proximity graph, the id/
// metadata maps, and (if configured) a persistence path and
// write-ahead log. All mutating operations are serialized through mu;
// searches may run concurrently with each other.
type Index struct {
	mu sync.RWMutex

	cfg      Config
	inserted bool // true once the first vector lands; freezes dimension/quantization/persistence_path

	vecs        *vecstore.Store
	scalarStore *quant.Scalar8Store
	binaryStore *quant.BinaryStore
	buf         *buffer.Buffer
	g           *graph.Graph

	extToID map[string]uint64
	idToExt map[uint64]string
	meta    map[uint64]Metadata

	liveCount int
	kernels   distance.Kernels

	wal     *persist.WAL
	metrics *obs.Metrics
	log     zerolog.Logger

	closed bool
}

// New constructs an Index with the given options applied over
// DefaultConfig.
func New(opts ...Option) (*Index, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("vectune: applying option: %w", err)
		}
	}
	if cfg.MMax0 > 0 {
		cfg.MMax0 = clampInt(cfg.MMax0, cfg.M, 4*cfg.M)
	}

	idx := &Index{
		cfg:     cfg,
		buf:     buffer.New(cfg.BufferCapacity),
		extToID: make(map[string]uint64),
		idToExt: make(map[uint64]string),
		meta:    make(map[uint64]Metadata),
		kernels: distance.For(cfg.Distance),
		metrics: obs.NewMetrics(cfg.MetricsRegisterer),
		log:     obs.Component(obs.NewLogger(cfg.LogWriter), "vectune"),
	}
	switch cfg.Quantization {
	case quant.Scalar8:
		idx.scalarStore = quant.NewScalar8Store()
	case quant.Binary:
		idx.binaryStore = quant.NewBinaryStore()
	}

	if cfg.PersistencePath != "" {
		// recover also constructs idx.g (from a checkpoint's header if one
		// exists, empty otherwise) and opens/replays the WAL when use_wal
		// is set, since both need to happen before any WAL record replay
		// can call into the graph.
		if err := idx.recover(); err != nil {
			return nil, err
		}
	}
	if idx.g == nil {
		idx.g = graph.New(graph.Config{M: cfg.M, MMax0: cfg.MMax0, EfConstruction: cfg.EfConstruction, Seed: cfg.Seed}, indexSpace{idx})
	}
	return idx, nil
}

// setDimension infers D from the first vector seen, per spec.md §6:
// dimension is "fixed after first insert; not user-settable directly
// (inferred)".
func (idx *Index) setDimension(d int) {
	idx.cfg.Dimension = d
	idx.vecs = vecstore.New(d)
}

// Add inserts a brand-new external id. Returns DuplicateId if it
// already exists.
func (idx *Index) Add(externalID string, vector []float32, metadata Metadata) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if externalID == "" {
		return false, errEmptyId()
	}
	if len(vector) == 0 {
		return false, errEmptyVector()
	}
	if _, exists := idx.extToID[externalID]; exists {
		return false, errDuplicateId(externalID)
	}
	if idx.vecs == nil {
		idx.setDimension(len(vector))
	} else if len(vector) != idx.cfg.Dimension {
		return false, errDimensionMismatch(idx.cfg.Dimension, len(vector))
	}

	if _, err := idx.writeNewEntry(externalID, vector, metadata); err != nil {
		return false, err
	}
	if idx.wal != nil {
		if err := idx.wal.Append(persist.Record{Op: persist.OpAdd, ExternalID: externalID, Vector: vector, Metadata: metadata}); err != nil {
			return false, errIoError(idx.cfg.PersistencePath+persist.WALSuffix, err)
		}
	}
	idx.metrics.Inserts.Inc()
	return true, nil
}

// writeNewEntry assigns a NodeId, registers it, and pushes it into
// the buffer. If the buffer is already at capacity, it is flushed
// first, so a push never itself leaves the buffer over capacity —
// per spec.md §4.4/scenario C, a buffer of capacity B holds exactly B
// entries before the flush-triggering insert arrives, rather than
// flushing on the insert that reaches B.
func (idx *Index) writeNewEntry(externalID string, vector []float32, metadata Metadata) (uint64, error) {
	id, err := idx.vecs.Push(vector)
	if err != nil {
		return 0, errAllocationFailed("vecstore", err)
	}
	idx.extToID[externalID] = id
	idx.idToExt[id] = externalID
	idx.meta[id] = metadata
	idx.liveCount++
	idx.inserted = true

	if idx.buf.Full() {
		if err := idx.flushLocked(); err != nil {
			return id, err
		}
	}
	idx.buf.Push(id, vector, metadata)
	return id, nil
}

// Upsert overwrites vector and metadata in place if externalID
// exists, leaving graph topology untouched; otherwise behaves like
// Add.
func (idx *Index) Upsert(externalID string, vector []float32, metadata Metadata) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if externalID == "" {
		return false, errEmptyId()
	}
	if len(vector) == 0 {
		return false, errEmptyVector()
	}

	id, exists := idx.extToID[externalID]
	if !exists {
		if idx.vecs == nil {
			idx.setDimension(len(vector))
		} else if len(vector) != idx.cfg.Dimension {
			return false, errDimensionMismatch(idx.cfg.Dimension, len(vector))
		}
		if _, err := idx.writeNewEntry(externalID, vector, metadata); err != nil {
			return false, err
		}
		if idx.wal != nil {
			if err := idx.wal.Append(persist.Record{Op: persist.OpUpsert, ExternalID: externalID, Vector: vector, Metadata: metadata}); err != nil {
				return false, errIoError(idx.cfg.PersistencePath+persist.WALSuffix, err)
			}
		}
		idx.metrics.Upserts.Inc()
		return true, nil
	}

	if len(vector) != idx.cfg.Dimension {
		return false, errDimensionMismatch(idx.cfg.Dimension, len(vector))
	}
	if err := idx.vecs.Overwrite(id, vector); err != nil {
		return false, errAllocationFailed("vecstore", err)
	}
	idx.meta[id] = metadata
	if idx.buf.Contains(id) {
		idx.buf.Remove(id)
		idx.buf.Push(id, idx.vecs.Get(id), metadata)
	}
	idx.requantize(id, vector)

	if idx.wal != nil {
		if err := idx.wal.Append(persist.Record{Op: persist.OpUpsert, ExternalID: externalID, Vector: vector, Metadata: metadata}); err != nil {
			return false, errIoError(idx.cfg.PersistencePath+persist.WALSuffix, err)
		}
	}
	idx.metrics.Upserts.Inc()
	return true, nil
}

// requantize refreshes id's quantized representation if it is
// graph-resident and quantization is active; buffer-resident entries
// are quantized for the first time at flush.
func (idx *Index) requantize(id uint64, vector []float32) {
	if idx.g.IsDeleted(id) || idx.g.Level(id) < 0 {
		return
	}
	switch idx.cfg.Quantization {
	case quant.Scalar8:
		idx.scalarStore.Put(id, vector)
	case quant.Binary:
		idx.binaryStore.Put(id, vector)
	}
}

// AddBatch validates every entry's dimension up front (all-or-nothing
// at validation), then inserts in order, returning the external ids
// that were actually inserted.
func (idx *Index) AddBatch(vectors [][]float32, ids []string, metadata []Metadata) ([]string, error) {
	if len(vectors) != len(ids) {
		return nil, newErr(ErrCodeDimensionMismatch, "vectors and ids length mismatch: %d vs %d", len(vectors), len(ids))
	}

	idx.mu.RLock()
	dim := idx.cfg.Dimension
	dimSet := idx.vecs != nil
	idx.mu.RUnlock()

	for i, v := range vectors {
		if ids[i] == "" {
			return nil, errEmptyId()
		}
		if len(v) == 0 {
			return nil, errEmptyVector()
		}
		if dimSet && len(v) != dim {
			return nil, errDimensionMismatch(dim, len(v))
		}
		if !dimSet {
			dim = len(v)
			dimSet = true
		}
	}

	inserted := make([]string, 0, len(vectors))
	for i, v := range vectors {
		var md Metadata
		if metadata != nil {
			md = metadata[i]
		}
		ok, err := idx.Add(ids[i], v, md)
		if err != nil {
			// A duplicate id is a per-item outcome, not a batch
			// failure: dimension was already validated for every
			// entry above, so apart from a vector-store or WAL failure
			// (returned below) the only thing left to reject an
			// individual Add is an id collision (with an existing
			// entry or an earlier id in this same batch). Skip it and
			// keep inserting the rest, matching add_batch's "returns
			// the ids that were successfully inserted" contract.
			if Code(err) == ErrCodeDuplicateId {
				continue
			}
			return inserted, err
		}
		if ok {
			inserted = append(inserted, ids[i])
		}
	}
	return inserted, nil
}

// Delete tombstones externalID. Returns false (not an error) if it
// doesn't exist, matching spec.md §7's idempotent-caller contract.
func (idx *Index) Delete(externalID string) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	id, exists := idx.extToID[externalID]
	if !exists {
		return false, nil
	}

	if idx.buf.Contains(id) {
		idx.buf.Remove(id)
	} else {
		idx.g.Delete(id)
		idx.deleteFromQuantStores(id)
	}

	idx.vecs.Tombstone(id)
	delete(idx.extToID, externalID)
	delete(idx.idToExt, id)
	delete(idx.meta, id)
	idx.liveCount--

	if idx.wal != nil {
		if err := idx.wal.Append(persist.Record{Op: persist.OpDelete, ExternalID: externalID}); err != nil {
			return true, errIoError(idx.cfg.PersistencePath+persist.WALSuffix, err)
		}
	}
	idx.metrics.Deletes.Inc()
	return true, nil
}

func (idx *Index) deleteFromQuantStores(id uint64) {
	switch idx.cfg.Quantization {
	case quant.Scalar8:
		idx.scalarStore.Delete(id)
	case quant.Binary:
		idx.binaryStore.Delete(id)
	}
}

// Get returns the raw vector and metadata for externalID, if present.
func (idx *Index) Get(externalID string) ([]float32, Metadata, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	id, exists := idx.extToID[externalID]
	if !exists {
		return nil, nil, false
	}
	v := idx.vecs.Get(id)
	out := make([]float32, len(v))
	copy(out, v)
	return out, idx.meta[id], true
}

// Count reports the number of non-tombstoned entries.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.liveCount
}

// Clear resets all sub-stores and the graph; dimension becomes unset.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vecs = nil
	idx.scalarStore = nil
	idx.binaryStore = nil
	switch idx.cfg.Quantization {
	case quant.Scalar8:
		idx.scalarStore = quant.NewScalar8Store()
	case quant.Binary:
		idx.binaryStore = quant.NewBinaryStore()
	}
	idx.buf = buffer.New(idx.cfg.BufferCapacity)
	idx.g.Reset()
	idx.extToID = make(map[string]uint64)
	idx.idToExt = make(map[uint64]string)
	idx.meta = make(map[uint64]Metadata)
	idx.liveCount = 0
	idx.cfg.Dimension = 0
	idx.inserted = false
}

// Close flushes any buffered data and, if persistence is enabled,
// checkpoints before releasing resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	if idx.buf.Len() > 0 {
		if err := idx.flushLocked(); err != nil {
			return err
		}
	}
	if idx.cfg.PersistencePath != "" {
		if err := idx.checkpointLocked(); err != nil {
			return err
		}
	}
	if idx.wal != nil {
		if err := idx.wal.Close(); err != nil {
			return errIoError(idx.cfg.PersistencePath+persist.WALSuffix, err)
		}
	}
	idx.closed = true
	return nil
}
