package dashboard

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// dropNaN returns the non-NaN values of xs. Infinities are kept.
func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// nanSum adds the non-NaN values. An empty input sums to 0.
func nanSum(xs []float64) float64 {
	return floats.Sum(dropNaN(xs))
}

// nanMean averages the non-NaN values. With none left the result is NaN.
func nanMean(xs []float64) float64 {
	v := dropNaN(xs)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// pairwiseCorrelation is the Pearson coefficient over the positions where
// both x and y are present. Fewer than two such positions, or a constant
// input, gives NaN.
func pairwiseCorrelation(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, r))
}
