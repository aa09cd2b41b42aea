package engine

import (
	"math"
	"sort"
)

// NaN marks a missing value while features are derived; helpers below
// skip it the way a column-oriented aggregate would.

// minMaxNorm rescales a column to [0,1]. Missing (NaN) inputs are
// imputed to 0.5 after scaling. If every value is missing, or all
// non-missing values are equal, every row gets the neutral 0.5.
func minMaxNorm(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}

	lo := math.Inf(1)
	hi := math.Inf(-1)
	valid := 0
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		valid++
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}

	span := hi - lo
	if valid == 0 || span == 0 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = 0.5
			continue
		}
		out[i] = (x - lo) / span
	}
	return out
}

// meanValid returns the mean of the non-missing values, or NaN when
// the column is fully missing.
func meanValid(xs []float64) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// medianValid returns the median of the non-missing values (mean of
// the middle pair for even counts), or NaN when the column is fully
// missing.
func medianValid(xs []float64) float64 {
	var valid []float64
	for _, x := range xs {
		if !math.IsNaN(x) {
			valid = append(valid, x)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	sort.Float64s(valid)
	mid := len(valid) / 2
	if len(valid)%2 == 1 {
		return valid[mid]
	}
	return (valid[mid-1] + valid[mid]) / 2
}

// fillMissing replaces NaN entries with the fallback value.
func fillMissing(xs []float64, fallback float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = fallback
		} else {
			out[i] = x
		}
	}
	return out
}

// orNaN converts a nullable column value to its float representation.
func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// intOrNaN converts a nullable integer column value to a float.
func intOrNaN(p *int) float64 {
	if p == nil {
		return math.NaN()
	}
	return float64(*p)
}
