// Package contract implements a connectivity-preserving graph
// contraction pass: given a lattice and a keep predicate, it decides
// which non-kept coordinates can actually be dropped without
// disconnecting the survivors.
//
// The technique mirrors the teacher's approach of projecting a
// domain-specific grid onto a generic graph before running a traversal
// algorithm (see gridgraph.GridGraph.ToCoreGraph, which builds a
// *core.Graph from grid adjacency before handing it to BFS): here the
// GSOM lattice's axis-adjacency is walked directly with a breadth-first
// search rather than through a separate generic graph type, since the
// lattice is already adjacency-shaped.
package contract

import "sort"

// Coord is a lattice position. It intentionally does not depend on the
// gsom package's Coordinate type, keeping this package reusable for any
// coordinate-addressable lattice.
type Coord struct {
	X, Y int
}

// Lattice is the minimal read view the contraction pass needs.
type Lattice interface {
	// Coordinates returns every occupied coordinate.
	Coordinates() []Coord
	// Neighbours returns the occupied axis-adjacent coordinates of c.
	Neighbours(c Coord) []Coord
}

// Contract returns the coordinates that can be removed from lattice
// without disconnecting the remaining nodes, restricted to candidates
// for which keep returns false. Candidates are tried in a deterministic
// (X, Y) order; a candidate is removed only if doing so leaves every
// other surviving node reachable from an arbitrary surviving node.
func Contract(lattice Lattice, keep func(Coord) bool) []Coord {
	all := lattice.Coordinates()
	if len(all) == 0 {
		return nil
	}

	candidates := make([]Coord, 0, len(all))
	for _, c := range all {
		if !keep(c) {
			candidates = append(candidates, c)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].X != candidates[j].X {
			return candidates[i].X < candidates[j].X
		}
		return candidates[i].Y < candidates[j].Y
	})

	removed := make(map[Coord]bool, len(candidates))
	for _, c := range candidates {
		removed[c] = true
		if !stillConnected(all, removed, lattice) {
			removed[c] = false
		}
	}

	out := make([]Coord, 0, len(removed))
	for c, isRemoved := range removed {
		if isRemoved {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})

	return out
}

// stillConnected reports whether every coordinate in all that is not
// marked removed remains reachable from an arbitrary surviving
// coordinate, walking only edges between two surviving coordinates. It
// reports false when no coordinate survives, so the last node is never
// removed.
func stillConnected(all []Coord, removed map[Coord]bool, lattice Lattice) bool {
	var start Coord
	survivors := 0
	found := false
	for _, c := range all {
		if removed[c] {
			continue
		}
		survivors++
		if !found {
			start = c
			found = true
		}
	}
	if survivors == 0 {
		return false
	}

	visited := make(map[Coord]bool, survivors)
	queue := []Coord{start}
	visited[start] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, n := range lattice.Neighbours(cur) {
			if removed[n] || visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}

	return len(visited) == survivors
}
