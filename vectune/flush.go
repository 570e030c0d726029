package vectune

import (
	"time"

	"github.com/vectune/vectune/internal/quant"
)

// Flush forces the write buffer to flush synchronously.
func (idx *Index) Flush() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.flushLocked()
}

// flushLocked drains the buffer into the graph, quantizing each entry
// first if quantization is active, per spec.md §4.4. Graph.Insert has
// no failure mode of its own (a Space backed by this package's own
// vector store cannot go missing mid-flush), so every drained entry
// reaches the graph; the abort-and-retry path spec.md §4.4 describes
// for a failing insert has no trigger to exercise here, but flushing
// entry-by-entry rather than as one bulk call keeps that path cheap to
// add if a future Space implementation can fail.
func (idx *Index) flushLocked() error {
	start := time.Now()
	entries := idx.buf.Drain()

	for _, e := range entries {
		switch idx.cfg.Quantization {
		case quant.Scalar8:
			idx.scalarStore.Put(e.ID, e.Vector)
		case quant.Binary:
			idx.binaryStore.Put(e.ID, e.Vector)
		}
		idx.g.Insert(e.ID)
	}

	idx.metrics.FlushesTotal.Inc()
	idx.metrics.FlushLatency.Observe(time.Since(start).Seconds())
	return nil
}
