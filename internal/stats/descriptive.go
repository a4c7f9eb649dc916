// Package stats implements the numeric analyses behind the statistical
// handlers: descriptive summaries, distribution shape, correlation,
// outlier detection and clustering.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Description summarizes one numeric column.
type Description struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Describe computes the five-number summary plus mean and standard deviation.
// Returns a zero Description for empty input.
func Describe(values []float64) Description {
	if len(values) == 0 {
		return Description{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Description{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Std:    safeStd(sorted),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// Mode returns the most frequent value. Ties resolve to the smallest value.
func Mode(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := math.Inf(1), 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// Variance returns the sample variance.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.Variance(values, nil)
}

// CoefVariation returns the coefficient of variation as a percentage
// (σ/μ·100), or 0 when the mean is zero.
func CoefVariation(values []float64) float64 {
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return 0
	}
	return safeStd(values) / mean * 100
}

func safeStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
