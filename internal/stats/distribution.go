package stats

import (
	"gonum.org/v1/gonum/stat"
)

// shapiroMaxSamples bounds the Shapiro-Wilk input; beyond this the test's
// approximation degrades and the p-value loses meaning.
const shapiroMaxSamples = 5000

// DistributionShape characterizes one column's distribution.
type DistributionShape struct {
	Normal    bool    `json:"normal"`
	PValue    float64 `json:"p_value"`
	W         float64 `json:"w"`
	Skewness  float64 `json:"skewness"`
	Kurtosis  float64 `json:"kurtosis"`
	Samples   int     `json:"samples"`
	Truncated bool    `json:"truncated"`
}

// Shape runs the Shapiro-Wilk normality test (on at most 5000 samples) and
// computes skewness and excess kurtosis. Normality is declared at p > 0.05.
func Shape(values []float64) DistributionShape {
	sample := values
	truncated := false
	if len(sample) > shapiroMaxSamples {
		sample = sample[:shapiroMaxSamples]
		truncated = true
	}

	w, p := ShapiroWilk(sample)

	return DistributionShape{
		Normal:    p > 0.05,
		PValue:    p,
		W:         w,
		Skewness:  stat.Skew(values, nil),
		Kurtosis:  stat.ExKurtosis(values, nil),
		Samples:   len(sample),
		Truncated: truncated,
	}
}
