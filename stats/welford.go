package stats

import "math"

// Welford keeps weighted running moments using the incremental update of
// West (1979), and merges two partial states with the parallel formula of
// Chan et al. Weights must be positive. The variance is stored rather than
// the sum of squares so that restored moments read back unchanged.
type Welford struct {
	weight   float64
	mean     float64
	variance float64
}

func NewWelford() *Welford {
	return &Welford{
		weight:   0,
		mean:     0,
		variance: 0,
	}
}

// RestoreWelford rebuilds the moments from a total weight, a mean and a
// population variance.
func RestoreWelford(weight, mean, variance float64) *Welford {
	return &Welford{
		weight:   weight,
		mean:     mean,
		variance: variance,
	}
}

func (welford *Welford) Update(value, weight float64) {
	m2 := welford.variance * welford.weight
	welford.weight += weight
	delta := value - welford.mean
	welford.mean += delta * weight / welford.weight
	delta2 := value - welford.mean
	m2 += weight * delta * delta2
	welford.variance = m2 / welford.weight
}

// Merge returns the moments of the union of both samples. Neither input is
// modified.
func (welford *Welford) Merge(other *Welford) *Welford {
	switch {
	case welford.weight == 0 && other.weight == 0:
		return NewWelford()
	case welford.weight == 0:
		return other.Copy()
	case other.weight == 0:
		return welford.Copy()
	}
	total := welford.weight + other.weight
	delta := other.mean - welford.mean
	m2 := welford.variance*welford.weight + other.variance*other.weight +
		welford.weight*other.weight/total*delta*delta
	return &Welford{
		weight:   total,
		mean:     WeightedMean(welford.mean, welford.weight, other.mean, other.weight),
		variance: m2 / total,
	}
}

func (welford *Welford) Copy() *Welford {
	out := *welford
	return &out
}

func (welford *Welford) GetWeight() float64 {
	return welford.weight
}

func (welford *Welford) GetMean() float64 {
	return welford.mean
}

// GetVariance is the population variance, the weighted sum of squared
// deviations over the total weight.
func (welford *Welford) GetVariance() float64 {
	return welford.variance
}

func (welford *Welford) GetSD() float64 {
	return math.Sqrt(welford.GetVariance())
}
