package gsom

import (
	"math"
	"sort"

	"github.com/solvekit/gsom/random"
)

// Smooth repeats, rebalanceCount times: drain every node's storage into a
// single slice, sort it into a canonical order, deduplicate adjacent
// equal entries, shuffle with the network's random source, apply nodeFn
// to each remaining individual, retrain them as non-fresh inputs (radius
// 3, no growth, no hit accounting), then reset every node's error to
// zero.
func (net *Network) Smooth(ctx any, rebalanceCount int, nodeFn func(Input)) {
	for i := 0; i < rebalanceCount; i++ {
		data := net.drainAll()
		data = sortAndDedup(data)
		shuffleInputs(data, net.random)

		for _, d := range data {
			nodeFn(d)
		}

		net.trainOnData(ctx, data, false)

		for _, node := range net.Nodes() {
			node.Error = 0
		}
	}
}

func (net *Network) drainAll() []Input {
	var out []Input
	for _, node := range net.Nodes() {
		out = append(out, node.Storage.Drain()...)
	}

	return out
}

// sortAndDedup sorts data by a lexicographic, NaN-stable total order on
// weight vectors, then removes adjacent duplicates under the same order.
func sortAndDedup(data []Input) []Input {
	sortInputs(data)

	out := data[:0]
	for i, d := range data {
		if i == 0 || compareWeights(out[len(out)-1].Weights(), d.Weights()) != 0 {
			out = append(out, d)
		}
	}

	return out
}

func sortInputs(data []Input) {
	sort.Slice(data, func(i, j int) bool {
		return compareWeights(data[i].Weights(), data[j].Weights()) < 0
	})
}

// shuffleInputs performs a Fisher-Yates shuffle using the network's
// random source, mirroring `data.shuffle(&mut self.random.get_rng())`
// from the reference implementation.
func shuffleInputs(data []Input, rnd random.Random) {
	rng := rnd.Rng()
	rng.Shuffle(len(data), func(i, j int) {
		data[i], data[j] = data[j], data[i]
	})
}

// compareWeights compares two weight vectors component-wise using a
// NaN-stable total order (mirroring Rust's `f64::total_cmp`, not the
// usual IEEE partial order), returning the first non-zero comparison.
func compareWeights(a, b []float64) int {
	for i := range a {
		if c := totalCmp(a[i], b[i]); c != 0 {
			return c
		}
	}

	return 0
}

// totalCmp imposes a total order on float64 values, including NaNs:
// negative values order before positive, and all NaNs order consistently
// relative to every other value based on their bit pattern. This is the
// same bit-trick `f64::total_cmp` in Rust's standard library uses.
func totalCmp(a, b float64) int {
	ab := totalOrderKey(a)
	bb := totalOrderKey(b)

	switch {
	case ab < bb:
		return -1
	case ab > bb:
		return 1
	default:
		return 0
	}
}

func totalOrderKey(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits>>63 == 1 {
		return ^bits
	}

	return bits | (1 << 63)
}
