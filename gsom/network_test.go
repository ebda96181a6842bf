package gsom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvekit/gsom/gsom"
	"github.com/solvekit/gsom/random"
)

func bootstrapRoots() [4]gsom.Input {
	return testRoots([4][]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}})
}

func TestNetwork_New_PanicsOnMismatchedRootDimension(t *testing.T) {
	roots := [4]gsom.Input{vecInput{0, 0}, vecInput{0, 1, 2}, vecInput{1, 1}, vecInput{1, 0}}
	cfg := gsom.NetworkConfig{SpreadFactor: 0.5, DistributionFactor: 0.5, LearningRate: 0.1, RebalanceMemory: 4}

	assert.Panics(t, func() {
		gsom.New(nil, roots, cfg, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))
	})
}

func TestNetwork_New_PanicsOnOutOfRangeFactors(t *testing.T) {
	roots := bootstrapRoots()
	base := gsom.NetworkConfig{SpreadFactor: 0.5, DistributionFactor: 0.5, LearningRate: 0.1, RebalanceMemory: 4}

	bad := base
	bad.SpreadFactor = 0
	assert.Panics(t, func() { gsom.New(nil, roots, bad, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4)) })

	bad = base
	bad.DistributionFactor = 1
	assert.Panics(t, func() { gsom.New(nil, roots, bad, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4)) })

	bad = base
	bad.RebalanceMemory = 0
	assert.Panics(t, func() { gsom.New(nil, roots, bad, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4)) })
}

// TestNetwork_Bootstrap exercises scenario 1 from the end-to-end list:
// four bootstrap nodes, each with weights scaled within 25% of its root,
// and exactly one stored sample.
func TestNetwork_Bootstrap(t *testing.T) {
	roots := bootstrapRoots()
	cfg := gsom.NetworkConfig{SpreadFactor: 0.25, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4}

	net := gsom.New(nil, roots, cfg, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	require.Equal(t, 4, net.Size())

	for _, node := range net.Nodes() {
		assert.Equal(t, 1, node.Storage.Size())
	}

	rootByCoord := map[gsom.Coordinate][]float64{
		{X: 0, Y: 0}: {0, 0},
		{X: 0, Y: 1}: {0, 1},
		{X: 1, Y: 1}: {1, 1},
		{X: 1, Y: 0}: {1, 0},
	}
	for coord, root := range rootByCoord {
		node, ok := net.Find(coord)
		require.True(t, ok)
		for i, w := range node.Weights {
			if root[i] == 0 {
				assert.Equal(t, 0.0, w)
				continue
			}
			assert.GreaterOrEqual(t, w, root[i]*0.75)
			assert.LessOrEqual(t, w, root[i]*1.25)
		}
	}
}

// TestNetwork_TrivialGrowth exercises scenario 2: a high spread factor
// (low growing threshold) means repeated off-lattice input triggers
// growth quickly.
func TestNetwork_TrivialGrowth(t *testing.T) {
	roots := bootstrapRoots()
	cfg := gsom.NetworkConfig{SpreadFactor: 0.9, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4}

	net := gsom.New(nil, roots, cfg, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	for i := uint64(0); i < 10; i++ {
		net.Store(nil, vecInput{5, 5}, i+1)
	}

	assert.GreaterOrEqual(t, net.Size(), 5)
}

// TestNetwork_NoGrowRegime exercises scenario 3: an extremely low spread
// factor keeps the growing threshold effectively unreachable.
func TestNetwork_NoGrowRegime(t *testing.T) {
	roots := bootstrapRoots()
	cfg := gsom.NetworkConfig{SpreadFactor: 0.01, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4}

	net := gsom.New(nil, roots, cfg, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))
	rnd := random.NewRepeatable()

	for i := uint64(0); i < 1000; i++ {
		x := rnd.UniformReal(0, 1)
		y := rnd.UniformReal(0, 1)
		net.Store(nil, vecInput{x, y}, i+1)
	}

	assert.Equal(t, 4, net.Size())
}

// TestNetwork_DeterminismUnderBatch exercises scenario 5: feeding the
// same 256 inputs sequentially versus via StoreBatch produces identical
// lattices, coordinates, weights, and errors.
func TestNetwork_DeterminismUnderBatch(t *testing.T) {
	cfg := gsom.NetworkConfig{SpreadFactor: 0.5, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4}

	netA := gsom.New(nil, bootstrapRoots(), cfg, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))
	netB := gsom.New(nil, bootstrapRoots(), cfg, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	inputs := make([]vecInput, 256)
	seed := random.NewRepeatable()
	for i := range inputs {
		inputs[i] = vecInput{seed.UniformReal(0, 2), seed.UniformReal(0, 2)}
	}

	for i, in := range inputs {
		netA.Store(nil, in, uint64(i+1))
	}

	gsom.StoreBatch(netB, nil, inputs, uint64(len(inputs)), func(v vecInput) gsom.Input { return v })

	assert.Equal(t, netA.Size(), netB.Size())
	assert.ElementsMatch(t, netA.Coordinates(), netB.Coordinates())

	for _, coord := range netA.Coordinates() {
		nodeA, _ := netA.Find(coord)
		nodeB, ok := netB.Find(coord)
		require.True(t, ok)
		assert.InDeltaSlice(t, nodeA.Weights, nodeB.Weights, 1e-9)
		assert.InDelta(t, nodeA.Error, nodeB.Error, 1e-9)
	}
}

func TestNetwork_StorePanicsOnDimensionMismatch(t *testing.T) {
	net := gsom.New(nil, bootstrapRoots(), gsom.NetworkConfig{
		SpreadFactor: 0.5, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4,
	}, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	assert.Panics(t, func() { net.Store(nil, vecInput{1, 2, 3}, 1) })
}

func TestNetwork_LearningRateAccessors(t *testing.T) {
	net := gsom.New(nil, bootstrapRoots(), gsom.NetworkConfig{
		SpreadFactor: 0.5, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4,
	}, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	assert.Equal(t, 0.1, net.GetLearningRate())
	net.SetLearningRate(0.2)
	assert.Equal(t, 0.2, net.GetLearningRate())
}

func TestNetwork_SmoothPreservesIndividualsModuloDedup(t *testing.T) {
	net := gsom.New(nil, bootstrapRoots(), gsom.NetworkConfig{
		SpreadFactor: 0.5, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4,
	}, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	for i := uint64(0); i < 20; i++ {
		net.Store(nil, vecInput{float64(i % 3), float64(i % 2)}, i+1)
	}

	distinct := make(map[[2]float64]bool)
	for _, node := range net.Nodes() {
		for _, item := range node.Storage.Items() {
			w := item.Weights()
			distinct[[2]float64{w[0], w[1]}] = true
		}
	}

	seen := 0
	net.Smooth(nil, 1, func(gsom.Input) { seen++ })

	assert.Greater(t, seen, 0)
	assert.Equal(t, len(distinct), seen, "every stored individual reaches nodeFn once per distinct weight vector")
	for _, node := range net.Nodes() {
		assert.Equal(t, 0.0, node.Error)
	}
}

func TestNetwork_CompactWithRespectsConnectivity(t *testing.T) {
	net := gsom.New(nil, bootstrapRoots(), gsom.NetworkConfig{
		SpreadFactor: 0.9, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4,
	}, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	for i := uint64(0); i < 30; i++ {
		net.Store(nil, vecInput{5, 5}, i+1)
	}

	before := net.Size()
	net.CompactWith(nil, func(*gsom.Node) bool { return false })

	assert.LessOrEqual(t, net.Size(), before)
	assert.GreaterOrEqual(t, net.Size(), 1)
}

func TestNetwork_MSEAndMeanDistanceNonNegative(t *testing.T) {
	net := gsom.New(nil, bootstrapRoots(), gsom.NetworkConfig{
		SpreadFactor: 0.5, DistributionFactor: 0.25, LearningRate: 0.1, RebalanceMemory: 4,
	}, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))

	assert.GreaterOrEqual(t, net.MSE(), 0.0)
	assert.GreaterOrEqual(t, net.MeanDistance(), 0.0)
	assert.GreaterOrEqual(t, net.MaxUnifiedDistance(), 0.0)
}
