package telemetry

import "github.com/solvekit/gsom/population"

// ProxyPopulation wraps any population.Population[T] whose individuals
// implement Projectable, recording add/select/generation events into a
// shared ExperimentData before forwarding to the wrapped population.
type ProxyPopulation[T population.Population[I], I Projectable] struct {
	inner      T
	generation int
	shared     *SharedExperimentData
}

// NewProxyPopulation wraps inner, clearing shared's stored events on
// construction, mirroring ProxyPopulation::new's clear-on-build
// behaviour.
func NewProxyPopulation[T population.Population[I], I Projectable](inner T, shared *SharedExperimentData) *ProxyPopulation[T, I] {
	shared.withLock(func(e *ExperimentData) { e.Clear() })

	return &ProxyPopulation[T, I]{inner: inner, shared: shared}
}

// Add records the individual's projection under the current generation,
// then forwards to the inner population.
func (p *ProxyPopulation[T, I]) Add(ind I) bool {
	p.shared.withLock(func(e *ExperimentData) {
		e.OnAdd[p.generation] = append(e.OnAdd[p.generation], ind.ProjectObservation())
	})

	return p.inner.Add(ind)
}

// AddAll records every individual's projection under the current
// generation, then forwards to the inner population.
func (p *ProxyPopulation[T, I]) AddAll(inds []I) bool {
	p.shared.withLock(func(e *ExperimentData) {
		for _, ind := range inds {
			e.OnAdd[p.generation] = append(e.OnAdd[p.generation], ind.ProjectObservation())
		}
	})

	return p.inner.AddAll(inds)
}

// OnGeneration commits the on_generation snapshot and the population
// state snapshot before forwarding to the inner population, so a reader
// holding the shared mutex always sees a consistent per-generation view.
func (p *ProxyPopulation[T, I]) OnGeneration(stats population.Statistics) {
	p.generation = stats.Generation

	all := p.inner.All()
	observations := make([]ObservationData, len(all))
	for i, ind := range all {
		observations[i] = ind.ProjectObservation()
	}

	p.shared.withLock(func(e *ExperimentData) {
		e.Generation = p.generation
		e.OnGeneration[p.generation] = observations
		e.PopulationState[p.generation] = PopulationState{Size: p.inner.Size()}
	})

	p.inner.OnGeneration(stats)
}

// Compare delegates to the inner population.
func (p *ProxyPopulation[T, I]) Compare(a, b I) int {
	return p.inner.Compare(a, b)
}

// Select records every selected individual's projection under the
// current generation before returning the inner selection.
func (p *ProxyPopulation[T, I]) Select() []I {
	selected := p.inner.Select()

	p.shared.withLock(func(e *ExperimentData) {
		for _, ind := range selected {
			e.OnSelect[p.generation] = append(e.OnSelect[p.generation], ind.ProjectObservation())
		}
	})

	return selected
}

// Ranked delegates to the inner population.
func (p *ProxyPopulation[T, I]) Ranked() []I {
	return p.inner.Ranked()
}

// All delegates to the inner population.
func (p *ProxyPopulation[T, I]) All() []I {
	return p.inner.All()
}

// Size delegates to the inner population.
func (p *ProxyPopulation[T, I]) Size() int {
	return p.inner.Size()
}

// SelectionPhase delegates to the inner population.
func (p *ProxyPopulation[T, I]) SelectionPhase() population.SelectionPhase {
	return p.inner.SelectionPhase()
}
