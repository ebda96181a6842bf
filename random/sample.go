package random

import (
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DistributionSampler draws samples from standard continuous
// distributions on top of a Random source.
type DistributionSampler interface {
	// Gamma samples from a Gamma(shape, scale) distribution.
	Gamma(shape, scale float64) float64
	// Normal samples from a Normal(mean, std) distribution.
	Normal(mean, std float64) float64
}

// defaultDistributionSampler implements DistributionSampler on top of
// gonum's stat/distuv, using the wrapped Random as its generator source.
type defaultDistributionSampler struct {
	random Random
}

// NewDistributionSampler returns a DistributionSampler backed by random.
func NewDistributionSampler(random Random) DistributionSampler {
	return &defaultDistributionSampler{random: random}
}

func (s *defaultDistributionSampler) Gamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		panic("random: cannot create gamma distribution with non-positive shape/scale")
	}

	src := borrowSource(s.random)
	dist := distuv.Gamma{Alpha: shape, Beta: 1 / scale, Src: src}

	return dist.Rand()
}

func (s *defaultDistributionSampler) Normal(mean, std float64) float64 {
	if std <= 0 {
		panic("random: cannot create normal distribution with non-positive std")
	}

	src := borrowSource(s.random)
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: src}

	return dist.Rand()
}

// borrowSource adapts a Random's lent generator to the xrand.Rand type
// distuv expects as a sampling source.
func borrowSource(random Random) *xrand.Rand {
	return random.Rng()
}
