package gsom

import "gonum.org/v1/gonum/floats"

// EuclideanStorage is a bounded, oldest-evicted ring buffer of Input
// backed by Euclidean distance to the arithmetic mean of its stored
// weight vectors.
type EuclideanStorage struct {
	capacity int
	items    []Input
	next     int // ring cursor; valid once items has reached capacity
}

// NewEuclideanStorage returns a Storage bounded to capacity individuals.
// Panics if capacity <= 0.
func NewEuclideanStorage(capacity int) *EuclideanStorage {
	if capacity <= 0 {
		panic("gsom: storage capacity must be positive")
	}

	return &EuclideanStorage{capacity: capacity, items: make([]Input, 0, capacity)}
}

// NewEuclideanStorageFactory returns a StorageFactory producing
// EuclideanStorage instances of the given capacity, ignoring the outer
// context (the factory is pure and context-independent).
func NewEuclideanStorageFactory(capacity int) StorageFactory {
	return StorageFactoryFunc(func(_ any) Storage {
		return NewEuclideanStorage(capacity)
	})
}

// Add implements Storage. Once capacity is reached, the oldest entry is
// evicted to make room for ind.
func (s *EuclideanStorage) Add(ind Input) {
	if len(s.items) < s.capacity {
		s.items = append(s.items, ind)
		return
	}

	s.items[s.next] = ind
	s.next = (s.next + 1) % s.capacity
}

// Drain implements Storage.
func (s *EuclideanStorage) Drain() []Input {
	out := s.orderedItems()
	s.items = s.items[:0]
	s.next = 0

	return out
}

// Items implements Storage.
func (s *EuclideanStorage) Items() []Input {
	return s.orderedItems()
}

// orderedItems returns the stored items oldest-first, accounting for the
// ring cursor once the buffer has wrapped.
func (s *EuclideanStorage) orderedItems() []Input {
	if len(s.items) < s.capacity {
		out := make([]Input, len(s.items))
		copy(out, s.items)

		return out
	}

	out := make([]Input, 0, s.capacity)
	out = append(out, s.items[s.next:]...)
	out = append(out, s.items[:s.next]...)

	return out
}

// Distance implements Storage: Euclidean distance from query to the
// arithmetic mean of stored weight vectors. Returns 0 when empty (the
// caller, Node.Distance, treats that as "storage has no opinion" and
// falls back to the node's own weights).
func (s *EuclideanStorage) Distance(query []float64) float64 {
	if len(s.items) == 0 {
		return 0
	}

	mean := s.meanWeights()

	return euclidean(mean, query)
}

// Size implements Storage.
func (s *EuclideanStorage) Size() int {
	return len(s.items)
}

// MSE implements Storage: mean squared error of stored samples against
// weights.
func (s *EuclideanStorage) MSE(weights []float64) float64 {
	if len(s.items) == 0 {
		return 0
	}

	sum := 0.0
	for _, item := range s.items {
		d := euclidean(item.Weights(), weights)
		sum += d * d
	}

	return sum / float64(len(s.items))
}

func (s *EuclideanStorage) meanWeights() []float64 {
	dim := len(s.items[0].Weights())
	mean := make([]float64, dim)
	for _, item := range s.items {
		w := item.Weights()
		for i := 0; i < dim; i++ {
			mean[i] += w[i]
		}
	}
	n := float64(len(s.items))
	for i := range mean {
		mean[i] /= n
	}

	return mean
}

// euclidean is the L2 distance between two equal-length weight vectors,
// delegating to gonum's floats.Distance rather than hand-rolling the
// sum-of-squares loop.
func euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}
