package gsom

import (
	"math"

	"github.com/solvekit/gsom/parallel"
	"github.com/solvekit/gsom/random"
)

// NetworkConfig configures a Network's growth and learning behaviour.
type NetworkConfig struct {
	// SpreadFactor must be in (0, 1); smaller values make growth harder
	// (higher growing threshold).
	SpreadFactor float64
	// DistributionFactor (FD) must be in (0, 1): how much of a node's
	// error is redistributed to neighbours rather than triggering growth.
	DistributionFactor float64
	// LearningRate must be in (0, 1].
	LearningRate float64
	// RebalanceMemory (R) bounds node-local storage and hit-ring size.
	// Must be >= 1.
	RebalanceMemory int
	// HasInitialError, if true, seeds the four bootstrap nodes with error
	// equal to the growing threshold instead of zero.
	HasInitialError bool
}

// minMaxWeights tracks the running element-wise min/max of every weight
// vector ever inserted into the network.
type minMaxWeights struct {
	min, max []float64
}

func newMinMaxWeights(dim int) *minMaxWeights {
	min := make([]float64, dim)
	max := make([]float64, dim)
	for i := 0; i < dim; i++ {
		min[i] = math.MaxFloat64
		max[i] = -math.MaxFloat64
	}

	return &minMaxWeights{min: min, max: max}
}

func (m *minMaxWeights) update(weights []float64) {
	for i, v := range weights {
		if v < m.min[i] {
			m.min[i] = v
		}
		if v > m.max[i] {
			m.max[i] = v
		}
	}
}

func (m *minMaxWeights) midpoint() []float64 {
	out := make([]float64, len(m.min))
	for i := range out {
		out[i] = (m.min[i] + m.max[i]) / 2
	}

	return out
}

// Network is a Growing Self-Organizing Map: a lattice of Node values on
// an integer grid, trained by repeated best-matching-unit search, error
// accumulation, boundary growth, and weight adjustment.
type Network struct {
	dimension          int
	growingThreshold   float64
	distributionFactor float64
	learningRate       float64
	rebalanceMemory    int
	time               uint64

	minMax *minMaxWeights

	nodes map[Coordinate]*Node
	// order records coordinates in insertion order, so that BMU search and
	// other whole-lattice sweeps are deterministic for a fixed sequence of
	// insertions (Go maps do not guarantee iteration order across
	// instances, unlike the reference's FxHasher-backed HashMap).
	order []Coordinate

	storageFactory StorageFactory
	random         random.Random
}

// New creates a Network from four bootstrap inputs sharing the same
// weight-vector length. Panics if the inputs disagree on dimension or if
// config's factors are out of range.
func New(ctx any, roots [4]Input, config NetworkConfig, rnd random.Random, storageFactory StorageFactory) *Network {
	dimension := len(roots[0].Weights())
	for _, r := range roots {
		if len(r.Weights()) != dimension {
			panic("gsom: all roots must share the same weight-vector length")
		}
	}
	if !(config.DistributionFactor > 0 && config.DistributionFactor < 1) {
		panic("gsom: DistributionFactor must be in (0, 1)")
	}
	if !(config.SpreadFactor > 0 && config.SpreadFactor < 1) {
		panic("gsom: SpreadFactor must be in (0, 1)")
	}
	if config.RebalanceMemory < 1 {
		panic("gsom: RebalanceMemory must be >= 1")
	}

	growingThreshold := -float64(dimension) * math.Log2(config.SpreadFactor)
	initialError := 0.0
	if config.HasInitialError {
		initialError = growingThreshold
	}

	net := &Network{
		dimension:          dimension,
		growingThreshold:   growingThreshold,
		distributionFactor: config.DistributionFactor,
		learningRate:       config.LearningRate,
		rebalanceMemory:    config.RebalanceMemory,
		minMax:             newMinMaxWeights(dimension),
		nodes:              make(map[Coordinate]*Node, 4),
		storageFactory:     storageFactory,
		random:             rnd,
	}

	net.createInitialNodes(ctx, roots, initialError)

	return net
}

// bootstrapCoordinates are the four initial lattice positions, in the
// order their root inputs are consumed.
var bootstrapCoordinates = [4]Coordinate{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

func (net *Network) createInitialNodes(ctx any, roots [4]Input, initialError float64) {
	for i, coord := range bootstrapCoordinates {
		root := roots[i]
		weights := make([]float64, net.dimension)
		for j, v := range root.Weights() {
			ratio := net.random.UniformReal(0.75, 1.25)
			weights[j] = v * ratio
		}

		node := NewNode(coord, weights, initialError, net.rebalanceMemory, net.storageFactory.New(ctx))
		node.Storage.Add(root)

		net.insertNode(coord, node)
	}
}

// SetLearningRate sets a new learning rate.
func (net *Network) SetLearningRate(rate float64) {
	net.learningRate = rate
}

// GetLearningRate returns the current learning rate.
func (net *Network) GetLearningRate() float64 {
	return net.learningRate
}

// GetCurrentTime returns the network's monotonic tick counter.
func (net *Network) GetCurrentTime() uint64 {
	return net.time
}

// Dimension returns the weight-vector length shared by every node.
func (net *Network) Dimension() int {
	return net.dimension
}

// Store trains a single input into the network at time t. t must be
// non-decreasing across successive calls.
func (net *Network) Store(ctx any, input Input, t uint64) {
	if len(input.Weights()) != net.dimension {
		panic("gsom: input dimension does not match network dimension")
	}

	net.time = t
	net.train(ctx, input, true)
}

// bmuResult is the outcome of a parallel BMU search for one input: its
// assigned coordinate, the resulting quantization error, and the input
// itself.
type bmuResult struct {
	coord Coordinate
	err   float64
	input Input
}

// StoreBatch trains a batch of raw items into the network, mapping each
// through mapFn to an Input. BMU search for all items runs in parallel;
// the resulting updates are applied sequentially in input order, so
// training is deterministic with respect to input order for a fixed
// random seed.
func StoreBatch[T any](net *Network, ctx any, items []T, t uint64, mapFn func(T) Input) {
	net.time = t

	results := parallel.IntoCollect(items, func(item T) bmuResult {
		input := mapFn(item)
		bmu := net.findBMU(input)
		return bmuResult{coord: bmu.Coordinate, err: bmu.Distance(input.Weights()), input: input}
	})

	net.trainBatch(ctx, results, true)
}

// trainOnData re-trains the network on already-built inputs: used by
// smoothing, which needs non-fresh retraining after draining and
// reshuffling every node's storage.
func (net *Network) trainOnData(ctx any, data []Input, isNewInput bool) {
	results := parallel.IntoCollect(data, func(input Input) bmuResult {
		bmu := net.findBMU(input)
		return bmuResult{coord: bmu.Coordinate, err: bmu.Distance(input.Weights()), input: input}
	})

	net.trainBatch(ctx, results, isNewInput)
}

// trainBatch sequentially folds parallel BMU-search results into the
// lattice, in the order produced, since update mutates shared state.
func (net *Network) trainBatch(ctx any, results []bmuResult, isNewInput bool) {
	for _, r := range results {
		net.update(ctx, r.coord, r.input, r.err, isNewInput)
		net.nodes[r.coord].Storage.Add(r.input)
	}
}

// train performs a single training step for input, using radius 2 for
// fresh inputs and radius 3 for rebalancing inputs.
func (net *Network) train(ctx any, input Input, isNewInput bool) {
	bmu := net.findBMU(input)
	coord := bmu.Coordinate
	errorValue := bmu.Distance(input.Weights())

	net.update(ctx, coord, input, errorValue, isNewInput)
	net.nodes[coord].Storage.Add(input)
}

// findBMU returns the node minimizing distance to input's weights.
// NaN or otherwise unordered comparisons are treated as Less, so the
// first-seen node wins any tie or pathological comparison: a deliberate
// policy to tolerate NaN weights without crashing training.
func (net *Network) findBMU(input Input) *Node {
	if len(net.order) == 0 {
		panic("gsom: cannot find BMU in an empty lattice")
	}

	weights := input.Weights()
	var best *Node
	bestDist := math.Inf(1)

	for _, coord := range net.order {
		node := net.nodes[coord]
		d := node.Distance(weights)
		if best == nil || (!cmpLess(bestDist, d) && bestDist != d) {
			best = node
			bestDist = d
		}
	}

	return best
}

// cmpLess reports whether a should be treated as less than b, treating
// NaN or otherwise unordered results as Less so that the first value
// seen wins. This mirrors `partial_cmp(...).unwrap_or(Less)` from the
// reference implementation; do not substitute total-order comparison
// here, it changes tie-breaking.
func cmpLess(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return true
	}

	return a < b
}

func (net *Network) update(ctx any, coord Coordinate, input Input, errorValue float64, isNewInput bool) {
	radius := 3
	if isNewInput {
		radius = 2
	}

	node := net.nodes[coord]
	node.Error += errorValue
	if isNewInput {
		node.NewHit(net.time)
	}

	exceeds := node.Error >= net.growingThreshold
	canGrow := node.IsBoundary(net) && isNewInput

	switch {
	case exceeds && !canGrow:
		net.distributeError(coord, radius)
	case exceeds && canGrow:
		grown := net.growNodes(coord)
		for _, g := range grown {
			net.insert(ctx, g.coord, g.weights)
			net.adjustWeights(g.coord, input.Weights(), radius, isNewInput)
		}
	default:
		net.adjustWeights(coord, input.Weights(), radius, isNewInput)
	}
}

// distributeError resets the BMU's error to half the growing threshold
// and scales up the error of every present neighbour within radius by a
// factor of 1 + FD/d, where d is Manhattan distance.
func (net *Network) distributeError(coord Coordinate, radius int) {
	node := net.nodes[coord]

	node.Error = 0.5 * net.growingThreshold

	for _, off := range node.Neighbours(net, radius) {
		if off.Coordinate == nil {
			continue
		}
		d := absInt(off.DX) + absInt(off.DY)
		factor := net.distributionFactor / float64(d)
		neighbour := net.nodes[*off.Coordinate]
		neighbour.Error += factor * neighbour.Error
	}
}

// growth is a pending new node: its coordinate and computed weights.
type growth struct {
	coord   Coordinate
	weights []float64
}

// growNodes computes the new nodes to create at every missing axis
// neighbour of coord, following the four extrapolation cases from the
// growing threshold design.
func (net *Network) growNodes(coord Coordinate) []growth {
	node := net.nodes[coord]
	weights := node.Weights

	var out []growth
	for _, off := range axisOffsets {
		target := coord.Add(off[0], off[1])
		if _, ok := net.nodes[target]; ok {
			continue
		}

		out = append(out, growth{coord: target, weights: net.extrapolate(coord, weights, off[0], off[1])})
	}

	return out
}

func (net *Network) getWeights(coord Coordinate) ([]float64, bool) {
	n, ok := net.nodes[coord]
	if !ok {
		return nil, false
	}

	return n.Weights, true
}

// extrapolate computes the weight vector for a new node grown from coord
// in direction (nx, ny), following the four documented cases:
//
//	(b) opposite extension exists -> midpoint
//	(a) mirrored neighbour exists -> linear extrapolation
//	(c) orthogonal neighbour exists -> linear extrapolation
//	(d) nothing usable -> midpoint of the network's min/max weights
func (net *Network) extrapolate(coord Coordinate, w1 []float64, nx, ny int) []float64 {
	if w2, ok := net.getWeights(coord.Add(2*nx, 2*ny)); ok {
		return midpoint(w1, w2)
	}

	if w2, ok := net.getWeights(coord.Add(-nx, -ny)); ok {
		return extrapolateFrom(w1, w2)
	}

	if nx != 0 {
		if w2, ok := net.getWeights(coord.Add(0, 1)); ok {
			return extrapolateFrom(w1, w2)
		}
		if w2, ok := net.getWeights(coord.Add(0, -1)); ok {
			return extrapolateFrom(w1, w2)
		}
	} else {
		if w2, ok := net.getWeights(coord.Add(1, 0)); ok {
			return extrapolateFrom(w1, w2)
		}
		if w2, ok := net.getWeights(coord.Add(-1, 0)); ok {
			return extrapolateFrom(w1, w2)
		}
	}

	return net.minMax.midpoint()
}

func midpoint(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = (a[i] + b[i]) / 2
	}

	return out
}

// extrapolateFrom extends w1 away from w2, component-wise: if w2's
// component is smaller, push further up; otherwise push further down.
// The two branches are arithmetically equivalent (w1 + (w1 - w2) either
// way), kept split to mirror the reference implementation's case split.
func extrapolateFrom(w1, w2 []float64) []float64 {
	out := make([]float64, len(w1))
	for i := range w1 {
		if w2[i] > w1[i] {
			out[i] = w1[i] - (w2[i] - w1[i])
		} else {
			out[i] = w1[i] + (w1[i] - w2[i])
		}
	}

	return out
}

// adjustWeights applies the weight-update rule to the node at coord and
// every present neighbour within radius, toward target.
func (net *Network) adjustWeights(coord Coordinate, target []float64, radius int, isNewInput bool) {
	node := net.nodes[coord]

	rate := net.learningRate * (1 - 3.8/float64(len(net.nodes)))
	if !isNewInput {
		rate *= 0.25
	}

	node.adjust(target, rate)

	for _, off := range node.Neighbours(net, radius) {
		if off.Coordinate == nil {
			continue
		}
		d := absInt(off.DX) + absInt(off.DY)
		neighbour := net.nodes[*off.Coordinate]
		neighbour.adjust(target, rate/float64(d))
	}
}

// insert creates and inserts a new node at coord with the given weights
// and zero error, updating the running min/max weights.
func (net *Network) insert(ctx any, coord Coordinate, weights []float64) {
	net.minMax.update(weights)
	node := NewNode(coord, weights, 0, net.rebalanceMemory, net.storageFactory.New(ctx))
	net.insertNode(coord, node)
}

func (net *Network) insertNode(coord Coordinate, node *Node) {
	net.nodes[coord] = node
	net.order = append(net.order, coord)
	net.minMax.update(node.Weights)
}

// remove deletes the node at coord, if present.
func (net *Network) remove(coord Coordinate) {
	if _, ok := net.nodes[coord]; !ok {
		return
	}

	delete(net.nodes, coord)
	for i, c := range net.order {
		if c == coord {
			net.order = append(net.order[:i], net.order[i+1:]...)
			break
		}
	}
}

// find implements the lattice interface Node needs for topology queries.
func (net *Network) find(c Coordinate) (*Node, bool) {
	n, ok := net.nodes[c]
	return n, ok
}

// Find returns the node at coord, if present.
func (net *Network) Find(coord Coordinate) (*Node, bool) {
	return net.find(coord)
}

// Coordinates returns every node coordinate, in insertion order.
func (net *Network) Coordinates() []Coordinate {
	out := make([]Coordinate, len(net.order))
	copy(out, net.order)

	return out
}

// Nodes returns every node, in insertion order.
func (net *Network) Nodes() []*Node {
	out := make([]*Node, len(net.order))
	for i, c := range net.order {
		out[i] = net.nodes[c]
	}

	return out
}

// Size returns the total number of nodes in the lattice.
func (net *Network) Size() int {
	return len(net.nodes)
}

// MeanDistance returns the mean of NodeDistance over every node that has
// at least one sample.
func (net *Network) MeanDistance() float64 {
	sum := 0.0
	count := 0
	for _, n := range net.Nodes() {
		if d, ok := n.NodeDistance(); ok {
			sum += d
			count++
		}
	}
	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

// MSE returns the mean squared error over the whole network.
func (net *Network) MSE() float64 {
	n := len(net.nodes)
	if n == 0 {
		n = 1
	}

	sum := 0.0
	for _, node := range net.Nodes() {
		sum += node.MSE()
	}

	return sum / float64(n)
}

// MaxUnifiedDistance returns the largest per-node unified distance at
// radius 1 across the lattice.
func (net *Network) MaxUnifiedDistance() float64 {
	max := 0.0
	for _, node := range net.Nodes() {
		if d := node.UnifiedDistance(net, 1); d > max {
			max = d
		}
	}

	return max
}
