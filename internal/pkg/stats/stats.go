// Package stats wraps the gonum primitives the profiler needs. All functions
// expect at least one value; callers guard against empty slices.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func Min(values []float64) float64 {
	return floats.Min(values)
}

func Max(values []float64) float64 {
	return floats.Max(values)
}

func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// PopStd is the population standard deviation (divisor n, not n-1).
func PopStd(values []float64) float64 {
	return stat.PopStdDev(values, nil)
}

// Quantile computes the p-th quantile with linear interpolation between order
// statistics, placing sample i at rank i/(n-1). This is the convention most
// dataframe tooling uses, so profiles stay comparable across stacks. Input is
// copied, the caller's slice is not reordered.
func Quantile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// IQRBounds returns the Tukey fences [q1-1.5*iqr, q3+1.5*iqr] together with
// the interquartile range itself.
func IQRBounds(values []float64) (lower, upper, iqr float64) {
	q1 := Quantile(values, 0.25)
	q3 := Quantile(values, 0.75)
	iqr = q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr, iqr
}
