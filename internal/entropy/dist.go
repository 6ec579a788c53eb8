package entropy

import (
	"math"
	"math/rand"
	"sort"
)

// Normal draws from N(mean, std).
func Normal(rng *rand.Rand, mean, std float64) float64 {
	return mean + rng.NormFloat64()*std
}

// Uniform draws from [lo, hi).
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return (hi-lo)*rng.Float64() + lo
}

// Lomax draws from the Pareto II distribution with scale 1, the shape numpy
// calls "pareto". For shape > 1 its mean is 1/(shape-1).
func Lomax(rng *rand.Rand, shape float64) float64 {
	u := 1 - rng.Float64() // (0, 1]
	return math.Pow(u, -1/shape) - 1
}

// LomaxMean returns the mean of Lomax(shape), or +Inf when shape <= 1.
func LomaxMean(shape float64) float64 {
	if shape <= 1 {
		return math.Inf(1)
	}
	return 1 / (shape - 1)
}

// Simplex draws a uniformly random point on the (n-1)-simplex: n-1 uniforms
// are sorted descending, framed by 1 and 0, and successive differences taken.
// The components are exchangeable, non-negative and sum to 1.
func Simplex(rng *rand.Rand, n int) []float64 {
	if n <= 0 {
		return nil
	}
	cuts := make([]float64, 0, n+1)
	cuts = append(cuts, 1)
	for i := 0; i < n-1; i++ {
		cuts = append(cuts, rng.Float64())
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(cuts[1:])))
	cuts = append(cuts, 0)

	probs := make([]float64, n)
	for i := range probs {
		probs[i] = cuts[i] - cuts[i+1]
	}
	return probs
}

// Subset shuffles the indices 0..n-1 and returns the first k.
func Subset(rng *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	perm := rng.Perm(n)
	return perm[:k]
}
