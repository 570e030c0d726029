// Package graph implements the layered proximity graph (the
// HNSW-style index) that backs approximate nearest-neighbor search
// once a node has been flushed out of the write buffer.
//
// The graph owns only topology: per-node, per-layer neighbor lists
// addressed by NodeId. It never holds vector data itself; distance
// computation is delegated to a Space, which the coordinator wires up
// to the vector store and whichever quantized store is active.
package graph

import (
	"math"
	"math/rand"
)

// NodeID is the dense, insertion-ordered identifier used everywhere
// inside the engine. It is never recycled.
type NodeID = uint64

// Space decouples the graph from wherever vector data actually lives.
// Vector returns the representation used as the "query" when the
// graph itself needs to act as one side of a comparison (e.g. during
// insertion, comparing the new node against its candidate neighbors).
// DistanceToQuery compares a graph-resident node's stored
// representation against an explicit query vector.
type Space interface {
	Vector(id NodeID) []float32
	DistanceToQuery(id NodeID, query []float32) float32
}

type node struct {
	present bool
	deleted bool
	level   int
	links   [][]NodeID
}

// Graph is a layered directed graph with bounded per-node, per-layer
// degree. A node holds (owns) its neighbor lists; neighbors are
// addressed by NodeID, never by pointer, so mutation never invalidates
// anything beyond the touched node.
type Graph struct {
	m              int
	mMax0          int
	efConstruction int
	mL             float64

	space Space
	rng   *rand.Rand

	nodes      []node
	count      int
	entryPoint NodeID
	hasEntry   bool
	topLayer   int
}

// Config bundles the construction-time parameters of a Graph.
type Config struct {
	M              int
	MMax0          int
	EfConstruction int
	Seed           int64
}

// New creates an empty graph. space must outlive the graph.
func New(cfg Config, space Space) *Graph {
	m := cfg.M
	if m < 2 {
		m = 2
	}
	return &Graph{
		m:              m,
		mMax0:          cfg.MMax0,
		efConstruction: cfg.EfConstruction,
		mL:             1 / math.Log(float64(m)),
		space:          space,
		rng:            rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Count reports the number of non-deleted nodes currently in the graph.
func (g *Graph) Count() int { return g.count }

// TopLayer reports the graph's current top layer.
func (g *Graph) TopLayer() int { return g.topLayer }

// EntryPoint reports the current entry point and whether the graph is
// non-empty.
func (g *Graph) EntryPoint() (NodeID, bool) { return g.entryPoint, g.hasEntry }

// Level reports the top layer a present node was assigned, or -1 if
// the node isn't present (never inserted, or out of range).
func (g *Graph) Level(id NodeID) int {
	if !g.isPresent(id) {
		return -1
	}
	return g.nodes[id].level
}

// IsDeleted reports whether id has been tombstoned. Out-of-range or
// never-inserted ids are reported as deleted (nothing to traverse to).
func (g *Graph) IsDeleted(id NodeID) bool {
	if !g.isPresent(id) {
		return true
	}
	return g.nodes[id].deleted
}

func (g *Graph) isPresent(id NodeID) bool {
	return id < uint64(len(g.nodes)) && g.nodes[id].present
}

func (g *Graph) ensure(id NodeID) {
	if id < uint64(len(g.nodes)) {
		return
	}
	grown := make([]node, id+1)
	copy(grown, g.nodes)
	g.nodes = grown
}

// Neighbors returns node id's neighbor list at layer, or nil if id
// has no presence at that layer.
func (g *Graph) Neighbors(id NodeID, layer int) []NodeID {
	if !g.isPresent(id) || layer >= len(g.nodes[id].links) {
		return nil
	}
	return g.nodes[id].links[layer]
}

// maxDegree returns the bounded degree for a layer: the configured
// MMax0 at layer 0 (2M when MMax0 is unset), M above it.
func (g *Graph) maxDegree(layer int) int {
	if layer == 0 {
		if g.mMax0 > 0 {
			return g.mMax0
		}
		return 2 * g.m
	}
	return g.m
}

// generateLevel draws a layer from the geometric distribution
// described in spec: L = floor(-ln(U) * mL), mL = 1/ln(M).
func (g *Graph) generateLevel() int {
	u := g.rng.Float64()
	for u <= 0 {
		u = g.rng.Float64()
	}
	level := int(math.Floor(-math.Log(u) * g.mL))
	if level > 31 {
		level = 31 // pathologically unlikely; bounds the neighbor-list arena
	}
	return level
}

// ByteSize reports the approximate bytes consumed by neighbor-list
// storage, for the memory accountant: sum over nodes of neighbor-id
// bytes.
func (g *Graph) ByteSize() uint64 {
	var total uint64
	for _, n := range g.nodes {
		if !n.present {
			continue
		}
		total += 24 // node overhead: level, deleted flag, slice header
		for _, layer := range n.links {
			total += uint64(len(layer)) * 8
		}
	}
	return total
}

// nodeDistance compares two graph-resident nodes, used by
// heuristic_select to decide whether a candidate is closer to the
// node being connected than to an already-selected neighbor.
func (g *Graph) nodeDistance(a, b NodeID) float32 {
	return g.space.DistanceToQuery(b, g.space.Vector(a))
}
