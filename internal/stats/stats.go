// Package stats provides the numeric primitives behind the analysis engine.
//
// All functions operate on plain float64 slices and are deliberately
// decoupled from repository and domain types so they can be tested in
// isolation. Degenerate inputs (empty series, zero mean) return zero values
// rather than NaN.
package stats

import "math"

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SampleStdDev returns the sample standard deviation (n-1 divisor).
// Series with fewer than two points have no spread and return 0.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// PopulationStdDev returns the population standard deviation (n divisor).
func PopulationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// CoefficientOfVariation returns stddev/mean, or 0 when the mean is 0.
func CoefficientOfVariation(xs []float64) float64 {
	m := Mean(xs)
	if m == 0 {
		return 0
	}
	return SampleStdDev(xs) / m
}

// LinearRegression fits y = slope*x + intercept over x = 0..len(ys)-1 by
// ordinary least squares. A series shorter than two points yields a flat
// line at its own value.
func LinearRegression(ys []float64) (slope, intercept float64) {
	n := len(ys)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, ys[0]
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0, Mean(ys)
	}
	slope = (fn*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / fn
	return slope, intercept
}

// RSquared returns the coefficient of determination of the least-squares
// fit over x = 0..len(ys)-1. A constant series fits itself exactly and
// returns 1.
func RSquared(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	slope, intercept := LinearRegression(ys)
	m := Mean(ys)
	var ssTot, ssRes float64
	for i, y := range ys {
		pred := slope*float64(i) + intercept
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - m) * (y - m)
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}
