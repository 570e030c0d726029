package graph

// Delete tombstones id per spec §4.3.6: it is not physically removed
// from any neighbor list. Search, insert, and heuristic_select all
// skip tombstoned ids when walking neighbor lists; a later compaction
// (out of scope here) may reclaim the slot.
//
// If id was the entry point, a replacement is selected: the present,
// non-deleted node with the greatest top-layer value, ties broken by
// lower NodeId, matching the Graph's entry-point invariant.
func (g *Graph) Delete(id NodeID) bool {
	if !g.isPresent(id) || g.nodes[id].deleted {
		return false
	}
	g.nodes[id].deleted = true
	g.count--

	if g.hasEntry && g.entryPoint == id {
		g.replaceEntryPoint()
	}
	return true
}

// replaceEntryPoint scans for the best remaining live node. A linear
// scan is acceptable: entry-point replacement happens only when the
// single privileged node is deleted, not on every delete.
func (g *Graph) replaceEntryPoint() {
	bestID := NodeID(0)
	bestLevel := -1
	found := false

	for i, n := range g.nodes {
		if !n.present || n.deleted {
			continue
		}
		id := NodeID(i)
		if n.level > bestLevel || (n.level == bestLevel && id < bestID) {
			bestLevel = n.level
			bestID = id
			found = true
		}
	}

	if !found {
		g.hasEntry = false
		g.entryPoint = 0
		g.topLayer = 0
		return
	}
	g.entryPoint = bestID
	g.topLayer = bestLevel
}
