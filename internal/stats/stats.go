// Package stats implements the descriptive statistics shared by every analysis.
//
// All functions are pure and operate on finite float64 samples. Functions that are
// undefined on an empty sample return ErrEmpty; callers filter missing values first.
// Degenerate inputs resolve to documented sentinels instead of NaN so that report text
// never carries an undefined value:
//   - Std of a constant sample, a single value included, is 0.
//   - Skewness is 0 when fewer than three values are present or the sample is constant.
//   - Correlation is 0 when fewer than two pairs exist or either side is constant.
package stats

import (
	"errors"
	"math"
	"sort"
)

// ErrEmpty indicates a statistic was requested over an empty sample.
var ErrEmpty = errors.New("stats: empty sample")

// ErrLength indicates paired samples of unequal length.
var ErrLength = errors.New("stats: samples differ in length")

// Mean returns the arithmetic mean.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), nil
}

// Std returns the sample standard deviation (n-1 denominator).
func Std(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	if constant(xs) {
		return 0, nil
	}
	m, _ := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), nil
}

// constant reports whether every value equals the first. The mean of such a
// sample can still carry rounding error (0.1,0.1,0.1), so its deviation is not
// reliably zero.
func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// Min returns the smallest value.
func Min(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m, nil
}

// Max returns the largest value.
func Max(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m, nil
}

// Sorted returns an ascending copy of xs.
func Sorted(xs []float64) []float64 {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the p-quantile using linear interpolation between order
// statistics (position p*(n-1) in the sorted sample).
func Quantile(xs []float64, p float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	return quantileSorted(Sorted(xs), p), nil
}

// Median is Quantile(xs, 0.5).
func Median(xs []float64) (float64, error) {
	return Quantile(xs, 0.5)
}

func quantileSorted(sorted []float64, p float64) float64 {
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*w
}

// Skewness returns the adjusted Fisher-Pearson sample skewness
// n/((n-1)(n-2)) * sum((x-mean)^3) / s^3.
func Skewness(xs []float64) (float64, error) {
	n := len(xs)
	if n == 0 {
		return 0, ErrEmpty
	}
	if n < 3 || constant(xs) {
		return 0, nil
	}
	m, _ := Mean(xs)
	s, _ := Std(xs)
	var cubed float64
	for _, x := range xs {
		d := (x - m) / s
		cubed += d * d * d
	}
	fn := float64(n)
	return fn / ((fn - 1) * (fn - 2)) * cubed, nil
}

// Correlation returns the sample Pearson correlation of two equal-length samples.
func Correlation(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, ErrLength
	}
	n := len(xs)
	if n < 2 || constant(xs) || constant(ys) {
		return 0, nil
	}
	mx, _ := Mean(xs)
	my, _ := Mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, nil
	}
	r := sxy / math.Sqrt(sxx*syy)
	// Rounding can push |r| a hair past 1.
	return math.Max(-1, math.Min(1, r)), nil
}
