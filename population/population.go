// Package population adapts the GSOM lattice (and, in principle, any
// other store of individuals) to a small generic population contract:
// add individuals, advance generations, rank and select answers that
// balance quality against novelty.
package population

import (
	"sort"

	"github.com/solvekit/gsom/gsom"
	"github.com/solvekit/gsom/random"
)

// SelectionPhase is a coarse label describing a population's current
// exploration stance, advanced by generation count.
type SelectionPhase int

const (
	Initial SelectionPhase = iota
	Exploration
	Exploitation
)

func (p SelectionPhase) String() string {
	switch p {
	case Initial:
		return "initial"
	case Exploration:
		return "exploration"
	case Exploitation:
		return "exploitation"
	default:
		return "unknown"
	}
}

// Statistics describes the state of the outer evolutionary loop at the
// point OnGeneration is called.
type Statistics struct {
	Generation int
}

// Population is implemented by anything that stores individuals of type
// T, ranks them, and can be asked to select a subset for further
// exploration.
type Population[T any] interface {
	Add(ind T) bool
	AddAll(inds []T) bool
	OnGeneration(stats Statistics)
	Compare(a, b T) int
	Select() []T
	Ranked() []T
	All() []T
	Size() int
	SelectionPhase() SelectionPhase
}

// PhaseThresholds configures the generation counts at which a
// GsomPopulation advances between selection phases.
type PhaseThresholds struct {
	// ExplorationAt is the generation at which the phase moves from
	// Initial to Exploration.
	ExplorationAt int
	// ExploitationAt is the generation at which the phase moves from
	// Exploration to Exploitation. Must be >= ExplorationAt.
	ExploitationAt int
}

// GsomPopulation adapts a *gsom.Network into the Population contract. I
// is the concrete individual type stored in the lattice; it must satisfy
// gsom.Input so the network can train on it directly.
type GsomPopulation[I gsom.Input] struct {
	net        *gsom.Network
	rnd        random.Random
	thresholds PhaseThresholds
	compare    func(a, b I) int

	generation int
	tick       uint64
}

// NewGsomPopulation wraps net behind the Population contract, using
// compare to rank individuals (negative if a is better than b, as with
// sort.Interface's Less) and rnd for selection sampling.
func NewGsomPopulation[I gsom.Input](net *gsom.Network, rnd random.Random, thresholds PhaseThresholds, compare func(a, b I) int) *GsomPopulation[I] {
	return &GsomPopulation[I]{net: net, rnd: rnd, thresholds: thresholds, compare: compare}
}

// Add stores a single individual, returning true: the lattice always
// accepts new individuals (growth, not rejection, is its overflow
// policy).
func (p *GsomPopulation[I]) Add(ind I) bool {
	p.tick++
	p.net.Store(nil, ind, p.tick)

	return true
}

// AddAll stores every individual via gsom.StoreBatch, preserving
// input-order determinism.
func (p *GsomPopulation[I]) AddAll(inds []I) bool {
	if len(inds) == 0 {
		return true
	}

	p.tick += uint64(len(inds))
	gsom.StoreBatch(p.net, nil, inds, p.tick, func(ind I) gsom.Input { return ind })

	return true
}

// OnGeneration advances the selection phase based on the configured
// thresholds.
func (p *GsomPopulation[I]) OnGeneration(stats Statistics) {
	p.generation = stats.Generation
}

// Compare delegates to the configured comparator.
func (p *GsomPopulation[I]) Compare(a, b I) int {
	return p.compare(a, b)
}

// allTyped flattens every node's stored individuals back into I.
func (p *GsomPopulation[I]) allTyped() []I {
	var out []I
	for _, node := range p.net.Nodes() {
		for _, item := range node.Storage.Items() {
			out = append(out, item.(I))
		}
	}

	return out
}

// All returns every stored individual, in lattice node order.
func (p *GsomPopulation[I]) All() []I {
	return p.allTyped()
}

// Ranked returns every stored individual sorted best-first under the
// configured comparator.
func (p *GsomPopulation[I]) Ranked() []I {
	out := p.allTyped()
	sort.SliceStable(out, func(i, j int) bool { return p.compare(out[i], out[j]) < 0 })

	return out
}

// Select draws a subset balancing quality (rank under Compare) and
// novelty (each individual's node's UnifiedDistance) via weighted
// sampling, following the "select answers with a selection that
// balances quality and novelty" framing: individuals on more isolated
// (higher unified-distance) nodes get a novelty bonus on top of their
// quality-derived weight.
func (p *GsomPopulation[I]) Select() []I {
	individuals, weights := p.selectionWeights()
	if len(individuals) == 0 {
		return nil
	}

	count := len(individuals)/2 + 1
	chosen := make([]I, 0, count)
	used := make(map[int]bool, count)

	remaining := append([]float64(nil), weights...)
	for len(chosen) < count && len(chosen) < len(individuals) {
		idx := p.rnd.Weighted(remaining)
		if idx < 0 || used[idx] {
			break
		}
		used[idx] = true
		chosen = append(chosen, individuals[idx])
		remaining[idx] = 0
	}

	return chosen
}

// selectionWeights builds a quality/novelty blended weight per
// individual: quality comes from the individual's rank position under
// Compare (earlier scores higher), novelty from its owning node's
// UnifiedDistance at radius 1.
func (p *GsomPopulation[I]) selectionWeights() ([]I, []float64) {
	type candidate struct {
		ind     I
		novelty float64
	}

	var candidates []candidate
	for _, node := range p.net.Nodes() {
		novelty := node.UnifiedDistance(p.net, 1)
		for _, item := range node.Storage.Items() {
			candidates = append(candidates, candidate{ind: item.(I), novelty: novelty})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return p.compare(candidates[i].ind, candidates[j].ind) < 0
	})

	n := len(candidates)
	individuals := make([]I, n)
	weights := make([]float64, n)
	for rank, c := range candidates {
		quality := float64(n-rank) / float64(n+1)
		weight := quality + c.novelty
		if weight <= 0 {
			weight = 1e-9
		}
		individuals[rank] = c.ind
		weights[rank] = weight
	}

	return individuals, weights
}

// Size returns the total number of stored individuals.
func (p *GsomPopulation[I]) Size() int {
	total := 0
	for _, node := range p.net.Nodes() {
		total += node.Storage.Size()
	}

	return total
}

// SelectionPhase reports the current coarse exploration stance, derived
// from the generation count last reported to OnGeneration.
func (p *GsomPopulation[I]) SelectionPhase() SelectionPhase {
	switch {
	case p.generation >= p.thresholds.ExploitationAt:
		return Exploitation
	case p.generation >= p.thresholds.ExplorationAt:
		return Exploration
	default:
		return Initial
	}
}
