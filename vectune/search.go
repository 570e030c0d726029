package vectune

import (
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vectune/vectune/internal/buffer"
	"github.com/vectune/vectune/internal/distance"
)

// Search returns the K nearest entries to query, merging results
// computed independently from the graph (§4.3.3) and the write buffer
// (§4.4), per spec.md §4.5. filter, if non-empty, is applied after
// search: a result is kept iff every constraint matches its metadata.
// Held for the whole call, like Get and Stats: internal/graph.Graph
// and the idToExt/meta maps have no locking of their own, so the two
// lookups running concurrently via errgroup must still stay inside
// the single read-lock window the coordinator serializes all mutation
// against, not just the setup before they start.
func (idx *Index) Search(query []float32, k int, filter Filter) ([]Result, error) {
	start := time.Now()
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(query) != idx.cfg.Dimension {
		idx.metrics.SearchErrors.Inc()
		return nil, errDimensionMismatch(idx.cfg.Dimension, len(query))
	}

	bufSnapshot := idx.buf.Snapshot()
	kernel := idx.kernels.F32

	var graphResults, bufResults []distance.Candidate
	var grp errgroup.Group
	grp.Go(func() error {
		graphResults = idx.g.Search(query, k, idx.cfg.EfSearch)
		return nil
	})
	grp.Go(func() error {
		bufResults = buffer.Search(bufSnapshot, query, k, kernel)
		return nil
	})
	_ = grp.Wait() // both thunks are infallible; Wait only joins them

	merged := mergeCandidates(graphResults, bufResults, k)

	out := make([]Result, 0, len(merged))
	for _, c := range merged {
		ext, ok := idx.idToExt[c.ID]
		if !ok {
			continue
		}
		md := Metadata(idx.meta[c.ID])
		if filter != nil && !filter.matches(md) {
			continue
		}
		out = append(out, Result{ExternalID: ext, Distance: c.Distance, Metadata: md})
	}

	idx.metrics.SearchQueries.Inc()
	idx.metrics.SearchLatency.Observe(time.Since(start).Seconds())
	return out, nil
}

// mergeCandidates combines graph and buffer hits, de-duplicating by
// NodeId (a live id is resident in exactly one of the two), sorting
// ascending by distance with NodeId as the tie-break, and truncating
// to k.
func mergeCandidates(a, b []distance.Candidate, k int) []distance.Candidate {
	all := make([]distance.Candidate, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)

	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].ID < all[j].ID
	})
	if len(all) > k {
		all = all[:k]
	}
	return all
}
