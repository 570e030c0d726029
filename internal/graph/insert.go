package graph

import "github.com/vectune/vectune/internal/distance"

// Insert adds a fresh NodeId to the graph, per spec §4.3.2. id's
// vector must already be retrievable through the graph's Space (the
// coordinator writes to the vector/quantized stores before calling
// this).
func (g *Graph) Insert(id NodeID) {
	level := g.generateLevel()
	g.ensure(id)

	if !g.hasEntry {
		g.nodes[id] = node{present: true, level: level, links: make([][]NodeID, level+1)}
		g.entryPoint = id
		g.hasEntry = true
		g.topLayer = level
		g.count++
		return
	}

	query := g.space.Vector(id)
	ep := g.entryPoint
	top := g.topLayer

	for layer := top; layer > level; layer-- {
		ep = g.greedyDescend(query, ep, layer)
	}

	g.nodes[id] = node{present: true, level: level, links: make([][]NodeID, level+1)}

	start := top
	if level < start {
		start = level
	}
	for layer := start; layer >= 0; layer-- {
		candidates := g.searchLayer(query, ep, g.efConstruction, layer)
		mPrime := g.maxDegree(layer)
		selected := g.heuristicSelect(id, candidates, mPrime)

		links := make([]NodeID, len(selected))
		for i, c := range selected {
			links[i] = c.ID
		}
		g.nodes[id].links[layer] = links

		for _, m := range selected {
			g.addReverseLink(m.ID, layer, id, mPrime)
		}

		if len(candidates) > 0 {
			ep = candidates[0].ID
		}
	}

	if level > g.topLayer || (level == g.topLayer && id < g.entryPoint) {
		g.topLayer = level
		g.entryPoint = id
	}
	g.count++
}

// addReverseLink adds node to m's neighbor list at layer and, if that
// pushes m past its bounded degree, re-runs heuristicSelect over m's
// full neighbor set (existing neighbors plus the new one) to choose
// the trimmed set, per spec §4.3.2 step 5b.
func (g *Graph) addReverseLink(m NodeID, layer int, newNode NodeID, mPrime int) {
	if !g.isPresent(m) || layer >= len(g.nodes[m].links) {
		return
	}
	current := g.nodes[m].links[layer]
	for _, n := range current {
		if n == newNode {
			return
		}
	}
	current = append(current, newNode)

	if len(current) <= mPrime {
		g.nodes[m].links[layer] = current
		return
	}

	candidates := make([]distance.Candidate, 0, len(current))
	for _, n := range current {
		if g.IsDeleted(n) {
			continue
		}
		candidates = append(candidates, distance.Candidate{ID: n, Distance: g.nodeDistance(m, n)})
	}
	selected := g.heuristicSelect(m, candidates, mPrime)
	trimmed := make([]NodeID, len(selected))
	for i, c := range selected {
		trimmed[i] = c.ID
	}
	g.nodes[m].links[layer] = trimmed
}
