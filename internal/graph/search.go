package graph

import "github.com/vectune/vectune/internal/distance"

// searchLayer implements the bounded best-first search described in
// spec: a min-heap expansion frontier, a bounded max-heap of the best
// ef results seen so far, and a strict stopping condition once the
// frontier can no longer improve on the worst retained result.
//
// Tombstoned nodes are skipped entirely: they are never visited,
// never scored, and never occupy a results slot, which is what lets
// deletion work without rewriting neighbor lists.
func (g *Graph) searchLayer(query []float32, ep NodeID, ef int, layer int) []distance.Candidate {
	if !g.isPresent(ep) || g.nodes[ep].deleted {
		return nil
	}

	visited := make(map[NodeID]bool)
	candidates := distance.NewMinHeap(ef * 2)
	results := distance.NewMaxHeap(ef)

	epDist := g.space.DistanceToQuery(ep, query)
	start := distance.Candidate{ID: ep, Distance: epDist}
	candidates.PushCandidate(start)
	results.PushCandidate(start)
	visited[ep] = true

	for candidates.Len() > 0 {
		current, ok := candidates.PopCandidate()
		if !ok {
			break
		}
		if worst, ok := results.Top(); ok && current.Distance > worst.Distance {
			break
		}

		for _, neighbor := range g.Neighbors(current.ID, layer) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			if g.IsDeleted(neighbor) {
				continue
			}
			d := g.space.DistanceToQuery(neighbor, query)
			worst, haveWorst := results.Top()
			if results.Len() < ef || !haveWorst || d < worst.Distance {
				c := distance.Candidate{ID: neighbor, Distance: d}
				candidates.PushCandidate(c)
				results.PushCandidate(c)
				if results.Len() > ef {
					results.PopCandidate()
				}
			}
		}
	}

	return results.Sorted()
}

// greedyDescend performs the single-hop-improvement walk used both by
// insertion's upper-layer descent and by top-K search's phase 1: from
// ep, repeatedly jump to the neighbor at layer closer to query than
// the current best, until no neighbor improves on it.
func (g *Graph) greedyDescend(query []float32, ep NodeID, layer int) NodeID {
	best := ep
	bestDist := g.space.DistanceToQuery(best, query)
	improved := true
	for improved {
		improved = false
		for _, neighbor := range g.Neighbors(best, layer) {
			if g.IsDeleted(neighbor) {
				continue
			}
			d := g.space.DistanceToQuery(neighbor, query)
			if d < bestDist {
				bestDist = d
				best = neighbor
				improved = true
			}
		}
	}
	return best
}

// Search returns up to K candidates ordered ascending by distance,
// per spec §4.3.3. ef defaults to max(K, efSearch).
func (g *Graph) Search(query []float32, k, efSearch int) []distance.Candidate {
	if !g.hasEntry || g.count == 0 {
		return nil
	}
	ep := g.entryPoint
	for layer := g.topLayer; layer > 0; layer-- {
		ep = g.greedyDescend(query, ep, layer)
	}
	ef := efSearch
	if k > ef {
		ef = k
	}
	results := g.searchLayer(query, ep, ef, 0)
	if len(results) > k {
		results = results[:k]
	}
	return results
}
