package gsom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvekit/gsom/gsom"
	"github.com/solvekit/gsom/random"
)

func testRoots(vectors [4][]float64) [4]gsom.Input {
	var out [4]gsom.Input
	for i, v := range vectors {
		out[i] = vecInput(v)
	}
	return out
}

func squareNetwork(t *testing.T) *gsom.Network {
	t.Helper()

	roots := testRoots([4][]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}})
	cfg := gsom.NetworkConfig{
		SpreadFactor:       0.5,
		DistributionFactor: 0.5,
		LearningRate:       0.3,
		RebalanceMemory:    4,
	}

	return gsom.New(nil, roots, cfg, random.NewRepeatable(), gsom.NewEuclideanStorageFactory(4))
}

func TestNode_NewNodePanicsOnNonPositiveHitRing(t *testing.T) {
	assert.Panics(t, func() {
		gsom.NewNode(gsom.Coordinate{}, []float64{0, 0}, 0, 0, gsom.NewEuclideanStorage(1))
	})
}

func TestNode_NewNodeCopiesWeightsDefensively(t *testing.T) {
	w := []float64{1, 2, 3}
	n := gsom.NewNode(gsom.Coordinate{}, w, 0, 1, gsom.NewEuclideanStorage(1))

	w[0] = 999
	assert.Equal(t, []float64{1, 2, 3}, n.Weights)
}

func TestNode_DistanceFallsBackToOwnWeightsWhenStorageEmpty(t *testing.T) {
	n := gsom.NewNode(gsom.Coordinate{}, []float64{0, 0}, 0, 1, gsom.NewEuclideanStorage(4))
	assert.InDelta(t, 5.0, n.Distance([]float64{3, 4}), 1e-9)
}

func TestNode_DistanceUsesStorageWhenPopulated(t *testing.T) {
	n := gsom.NewNode(gsom.Coordinate{}, []float64{10, 10}, 0, 1, gsom.NewEuclideanStorage(4))
	n.Storage.Add(vecInput{0, 0})

	// storage mean is (0,0); query (3,4) -> distance 5, ignoring the node's
	// own weights of (10,10).
	assert.InDelta(t, 5.0, n.Distance([]float64{3, 4}), 1e-9)
}

func TestNode_NewHitOverwritesRingAndCountsTotal(t *testing.T) {
	n := gsom.NewNode(gsom.Coordinate{}, []float64{0}, 0, 2, gsom.NewEuclideanStorage(4))

	n.NewHit(1)
	n.NewHit(2)
	n.NewHit(3)

	assert.Equal(t, uint64(3), n.TotalHits)
}

func TestNode_NodeDistanceEmptyReturnsFalse(t *testing.T) {
	n := gsom.NewNode(gsom.Coordinate{}, []float64{0, 0}, 0, 1, gsom.NewEuclideanStorage(4))

	d, ok := n.NodeDistance()
	assert.False(t, ok)
	assert.Equal(t, 0.0, d)
}

func TestNode_NodeDistancePopulatedIsMeanDistanceToWeights(t *testing.T) {
	n := gsom.NewNode(gsom.Coordinate{}, []float64{0, 0}, 0, 1, gsom.NewEuclideanStorage(4))
	n.Storage.Add(vecInput{3, 0})
	n.Storage.Add(vecInput{0, 4})

	d, ok := n.NodeDistance()
	require.True(t, ok)
	assert.InDelta(t, 3.5, d, 1e-9)
}

func TestNode_MSEDelegatesToStorage(t *testing.T) {
	n := gsom.NewNode(gsom.Coordinate{}, []float64{0, 0}, 0, 1, gsom.NewEuclideanStorage(4))
	n.Storage.Add(vecInput{0, 0})
	n.Storage.Add(vecInput{4, 0})

	assert.InDelta(t, 8.0, n.MSE(), 1e-9)
}

func TestNode_IsBoundaryOnFreshSquareNetwork(t *testing.T) {
	net := squareNetwork(t)

	for _, coord := range net.Coordinates() {
		node, ok := net.Find(coord)
		require.True(t, ok)
		assert.True(t, node.IsBoundary(net), "every node of a 2x2 bootstrap lattice is a boundary node")
	}
}

func TestNode_NeighboursFindsOccupiedAxisCoordinates(t *testing.T) {
	net := squareNetwork(t)

	origin, ok := net.Find(gsom.Coordinate{X: 0, Y: 0})
	require.True(t, ok)

	offsets := origin.Neighbours(net, 1)

	occupied := 0
	for _, off := range offsets {
		if off.Coordinate != nil {
			occupied++
		}
	}
	// (0,0)'s axis neighbours within radius 1 are (1,0) and (0,1), both present.
	assert.Equal(t, 2, occupied)
}

func TestNode_UnifiedDistanceIsZeroWhenNoNeighbours(t *testing.T) {
	n := gsom.NewNode(gsom.Coordinate{X: 50, Y: 50}, []float64{0, 0}, 0, 1, gsom.NewEuclideanStorage(4))
	net := squareNetwork(t)

	assert.Equal(t, 0.0, n.UnifiedDistance(net, 1))
}

func TestNode_UnifiedDistanceAveragesPresentNeighbours(t *testing.T) {
	net := squareNetwork(t)

	origin, ok := net.Find(gsom.Coordinate{X: 0, Y: 0})
	require.True(t, ok)

	d := origin.UnifiedDistance(net, 1)
	assert.GreaterOrEqual(t, d, 0.0)
}
