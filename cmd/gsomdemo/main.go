// Package main demonstrates wiring the whole adaptive map-based
// population engine end to end: a GSOM lattice trained on a toy 2-D
// analytic objective, wrapped as a population, observed by the
// telemetry proxy, and trained in parallel batches.
//
// Scenario: individuals are points (x, y) in [0, 2]^2, scored by
// fitness(x, y) = -((x-1)^2 + (y-1)^2) (a single peak at (1, 1)). The
// demo feeds a few generations of random candidates through the
// population, then prints the serialized experiment telemetry.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/solvekit/gsom/gsom"
	"github.com/solvekit/gsom/population"
	"github.com/solvekit/gsom/random"
	"github.com/solvekit/gsom/telemetry"
)

// point is a toy analytic individual: a 2-D coordinate plus its fitness.
type point struct {
	x, y, fitness float64
}

func (p point) Weights() []float64 { return []float64{p.x, p.y} }

func (p point) ProjectObservation() telemetry.ObservationData {
	return telemetry.FunctionObservation{Point: telemetry.DataPoint3D{X: p.x, Fitness: p.fitness, Y: p.y}}
}

func fitness(x, y float64) float64 {
	dx, dy := x-1, y-1
	return -(dx*dx + dy*dy)
}

func comparePoints(a, b point) int {
	switch {
	case a.fitness > b.fitness:
		return -1
	case a.fitness < b.fitness:
		return 1
	default:
		return 0
	}
}

func randomPoint(rnd random.Random) point {
	x := rnd.UniformReal(0, 2)
	y := rnd.UniformReal(0, 2)

	return point{x: x, y: y, fitness: fitness(x, y)}
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	rnd := random.NewRandomized()

	roots := [4]gsom.Input{
		point{x: 0, y: 0, fitness: fitness(0, 0)},
		point{x: 0, y: 2, fitness: fitness(0, 2)},
		point{x: 2, y: 2, fitness: fitness(2, 2)},
		point{x: 2, y: 0, fitness: fitness(2, 0)},
	}

	net := gsom.New(nil, roots, gsom.NetworkConfig{
		SpreadFactor:       0.6,
		DistributionFactor: 0.35,
		LearningRate:       0.2,
		RebalanceMemory:    6,
	}, rnd, gsom.NewEuclideanStorageFactory(6))

	base := population.NewGsomPopulation[point](net, rnd, population.PhaseThresholds{
		ExplorationAt:  2,
		ExploitationAt: 5,
	}, comparePoints)

	shared := telemetry.NewSharedExperimentData()
	proxy := telemetry.NewProxyPopulation[*population.GsomPopulation[point], point](base, shared)

	const generations = 6
	const batchSize = 40

	for gen := 0; gen < generations; gen++ {
		batch := make([]point, batchSize)
		for i := range batch {
			batch[i] = randomPoint(rnd)
		}

		proxy.AddAll(batch)
		selected := proxy.Select()

		logger.Info().
			Int("generation", gen).
			Int("lattice_size", net.Size()).
			Int("selected", len(selected)).
			Str("phase", proxy.SelectionPhase().String()).
			Msg("generation complete")

		proxy.OnGeneration(population.Statistics{Generation: gen})
	}

	net.Compact(nil)
	logger.Info().Int("compacted_size", net.Size()).Msg("compaction complete")

	snapshot := shared.Snapshot()
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot marshal experiment telemetry")
	}

	fmt.Println(string(raw))
}
