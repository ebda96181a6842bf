package gsom

import (
	"sort"

	"github.com/solvekit/gsom/gsom/contract"
)

type latticeCoord = contract.Coord

// latticeView adapts a Network to contract.Lattice without the contract
// package needing to know about gsom.Coordinate or gsom.Node.
type latticeView struct {
	net *Network
}

func (v latticeView) Coordinates() []latticeCoord {
	out := make([]latticeCoord, len(v.net.order))
	for i, c := range v.net.order {
		out[i] = latticeCoord{X: c.X, Y: c.Y}
	}

	return out
}

func (v latticeView) Neighbours(c latticeCoord) []latticeCoord {
	var out []latticeCoord
	coord := Coordinate{X: c.X, Y: c.Y}
	for _, off := range axisOffsets {
		if n, ok := v.net.find(coord.Add(off[0], off[1])); ok {
			out = append(out, latticeCoord{X: n.Coordinate.X, Y: n.Coordinate.Y})
		}
	}

	return out
}

// Compact shrinks the lattice using the default eviction criterion:
// nodes whose total hit count falls in the bottom 3/4 of the lattice are
// candidates for removal, subject to the connectivity-preserving
// contraction pass keeping the lattice whole.
func (net *Network) Compact(ctx any) {
	net.CompactWith(ctx, net.defaultKeep())
}

// CompactWith shrinks the lattice using a caller-supplied keep
// predicate: nodes for which keep returns false are candidates for
// removal, but a candidate only survives removal when doing so would
// disconnect the remaining lattice.
func (net *Network) CompactWith(ctx any, keep func(*Node) bool) {
	removable := contract.Contract(latticeView{net: net}, func(c latticeCoord) bool {
		node, ok := net.find(Coordinate{X: c.X, Y: c.Y})
		if !ok {
			return true
		}
		return keep(node)
	})

	for _, c := range removable {
		net.remove(Coordinate{X: c.X, Y: c.Y})
	}
}

// defaultKeep implements the (3, 4) fraction from the spec: a node is
// kept outright if its total hit count is at or above the 75th
// percentile of hit counts across the lattice; everything below that is
// a removal candidate (still subject to the connectivity check).
func (net *Network) defaultKeep() func(*Node) bool {
	nodes := net.Nodes()
	hits := make([]uint64, len(nodes))
	for i, n := range nodes {
		hits[i] = n.TotalHits
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i] < hits[j] })

	threshold := uint64(0)
	if len(hits) > 0 {
		idx := (3 * len(hits)) / 4
		if idx >= len(hits) {
			idx = len(hits) - 1
		}
		threshold = hits[idx]
	}

	return func(n *Node) bool { return n.TotalHits >= threshold }
}
