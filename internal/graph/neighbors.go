package graph

import (
	"sort"

	"github.com/vectune/vectune/internal/distance"
)

// heuristicSelect is the robust-pruning neighbor selector described in
// spec §4.3.5: a candidate is kept only if it is closer to node than
// to every already-selected neighbor, which avoids clustering and
// preserves graph diversity. If the primary pass doesn't fill mPrime
// slots, a secondary pass fills the remainder with the closest
// leftover candidates by distance to node.
func (g *Graph) heuristicSelect(node NodeID, candidates []distance.Candidate, mPrime int) []distance.Candidate {
	if mPrime <= 0 {
		return nil
	}

	w := make([]distance.Candidate, len(candidates))
	copy(w, candidates)
	sort.Slice(w, func(i, j int) bool { return w[i].Distance < w[j].Distance })

	selected := make([]distance.Candidate, 0, mPrime)
	usedInPrimary := make(map[NodeID]bool, mPrime)

	for _, c := range w {
		if len(selected) == mPrime {
			break
		}
		keep := true
		for _, r := range selected {
			if g.nodeDistance(c.ID, r.ID) <= c.Distance {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c)
			usedInPrimary[c.ID] = true
		}
	}

	if len(selected) < mPrime {
		for _, c := range w {
			if len(selected) == mPrime {
				break
			}
			if usedInPrimary[c.ID] {
				continue
			}
			selected = append(selected, c)
		}
	}

	return selected
}
