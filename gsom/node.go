package gsom

// axisOffsets are the four axis-aligned neighbour offsets used for
// boundary detection and growth.
var axisOffsets = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// NeighbourOffset pairs a lattice offset with the coordinate found there,
// if any node occupies it.
type NeighbourOffset struct {
	Coordinate *Coordinate
	DX, DY     int
}

// Node is one lattice cell: a fixed coordinate, a mutable weight vector,
// accumulated quantization error, a bounded hit history, and a bounded
// store of individuals.
type Node struct {
	Coordinate Coordinate
	Weights    []float64
	Error      float64

	hitRing   []uint64
	hitCursor int
	TotalHits uint64

	Storage Storage
}

// NewNode creates a node at coord with the given initial weights, error,
// hit-ring capacity and storage. weights is copied defensively.
func NewNode(coord Coordinate, weights []float64, errorValue float64, hitRingSize int, storage Storage) *Node {
	if hitRingSize <= 0 {
		panic("gsom: node hit-ring size must be positive")
	}

	w := make([]float64, len(weights))
	copy(w, weights)

	return &Node{
		Coordinate: coord,
		Weights:    w,
		Error:      errorValue,
		hitRing:    make([]uint64, hitRingSize),
		Storage:    storage,
	}
}

// Distance reports the distance from the node to query: the storage's
// distance when it holds samples, otherwise the Euclidean distance
// between the node's own weights and query.
func (n *Node) Distance(query []float64) float64 {
	if n.Storage.Size() > 0 {
		return n.Storage.Distance(query)
	}

	return euclidean(n.Weights, query)
}

// NewHit records a hit at time t in the ring buffer, overwriting the
// oldest entry, and increments TotalHits.
func (n *Node) NewHit(t uint64) {
	n.hitRing[n.hitCursor] = t
	n.hitCursor = (n.hitCursor + 1) % len(n.hitRing)
	n.TotalHits++
}

// lattice is the minimal view of the network a node needs to answer
// topology questions, satisfied by *Network.
type lattice interface {
	find(c Coordinate) (*Node, bool)
}

// IsBoundary reports whether at least one of the four axis-aligned
// neighbours of n is absent from net.
func (n *Node) IsBoundary(net lattice) bool {
	for _, off := range axisOffsets {
		if _, ok := net.find(n.Coordinate.Add(off[0], off[1])); !ok {
			return true
		}
	}

	return false
}

// Neighbours yields every offset (dx, dy) with 0 < |dx|+|dy| <= radius,
// paired with the coordinate present there, if any. Order is a
// deterministic sweep (dx ascending, then dy ascending) and is stable for
// a given radius, but otherwise unspecified by contract.
func (n *Node) Neighbours(net lattice, radius int) []NeighbourOffset {
	out := make([]NeighbourOffset, 0, 4*radius*radius)

	for dx := -radius; dx <= radius; dx++ {
		remaining := radius - absInt(dx)
		for dy := -remaining; dy <= remaining; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}

			coord := n.Coordinate.Add(dx, dy)
			item := NeighbourOffset{DX: dx, DY: dy}
			if node, ok := net.find(coord); ok {
				c := node.Coordinate
				item.Coordinate = &c
			}
			out = append(out, item)
		}
	}

	return out
}

// UnifiedDistance returns the mean Euclidean distance between n's weight
// vector and the weight vectors of each present neighbour within radius.
func (n *Node) UnifiedDistance(net lattice, radius int) float64 {
	sum := 0.0
	count := 0

	for _, off := range n.Neighbours(net, radius) {
		if off.Coordinate == nil {
			continue
		}
		neighbour, ok := net.find(*off.Coordinate)
		if !ok {
			continue
		}
		sum += euclidean(n.Weights, neighbour.Weights)
		count++
	}

	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

// NodeDistance returns the mean distance from storage samples to the
// node's weights, and false if the storage is empty.
func (n *Node) NodeDistance() (float64, bool) {
	if n.Storage.Size() == 0 {
		return 0, false
	}

	samples := n.Storage.Items()
	sum := 0.0
	for _, s := range samples {
		sum += euclidean(s.Weights(), n.Weights)
	}

	return sum / float64(len(samples)), true
}

// MSE returns the mean squared error of the node's storage against its
// own weights.
func (n *Node) MSE() float64 {
	return n.Storage.MSE(n.Weights)
}

// adjust moves the node's weights toward target by rate:
// w <- w + rate*(target - w), component-wise.
func (n *Node) adjust(target []float64, rate float64) {
	for i := range n.Weights {
		n.Weights[i] += rate * (target[i] - n.Weights[i])
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
