package vectune

import "github.com/vectune/vectune/internal/memstat"

// Stats reports count, dimension, buffer fill, graph top layer, and
// per-component byte usage, per spec.md §4.5/§4.8.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sources := memstat.Sources{
		GraphLinks: idx.g.ByteSize,
		Buffer:     idx.buf.ByteSize,
		IDMap:      idx.idMapByteSize,
		Metadata:   idx.metadataByteSize,
	}
	if idx.vecs != nil {
		sources.RawVectors = idx.vecs.ByteSize
	}
	switch {
	case idx.scalarStore != nil:
		sources.Quantized = idx.scalarStore.ByteSize
	case idx.binaryStore != nil:
		sources.Quantized = idx.binaryStore.ByteSize
	}

	return Stats{
		Count:       idx.liveCount,
		Dimension:   idx.cfg.Dimension,
		BufferFill:  idx.buf.Len(),
		GraphTop:    idx.g.TopLayer(),
		MemoryUsage: memstat.Report(sources),
	}
}

func (idx *Index) idMapByteSize() uint64 {
	var total uint64
	for ext := range idx.extToID {
		total += uint64(len(ext)) + 8
	}
	return total
}

func (idx *Index) metadataByteSize() uint64 {
	var total uint64
	for _, md := range idx.meta {
		for k, v := range md {
			total += uint64(len(k) + len(v))
		}
	}
	return total
}
