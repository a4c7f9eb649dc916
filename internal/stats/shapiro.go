package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ShapiroWilk computes the Shapiro-Wilk W statistic and approximate p-value
// for the null hypothesis that the sample is normally distributed, following
// Royston's AS R94 approximation. Valid for 3 <= n <= 5000; outside that
// range (or for constant samples) it returns W=1, p=1.
func ShapiroWilk(values []float64) (w, p float64) {
	n := len(values)
	if n < 3 || n > shapiroMaxSamples {
		return 1, 1
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)
	if x[0] == x[n-1] {
		// Zero range: the test is undefined for constant data.
		return 1, 1
	}

	// Expected values of normal order statistics (Blom scores).
	m := make([]float64, n)
	var ssq float64
	for i := range m {
		m[i] = stdNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ssq += m[i] * m[i]
	}

	// Weights: Royston's polynomial-corrected coefficients.
	a := make([]float64, n)
	rsn := 1.0 / math.Sqrt(float64(n))
	if n <= 5 {
		c := m[n-1] / math.Sqrt(ssq)
		an := c + poly(rsn, -2.706056, 4.434685, -2.071190, -0.147981, 0.221157, 0)
		phi := (ssq - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		a[n-1] = an
		a[0] = -an
		for i := 1; i < n-1; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	} else {
		cn := m[n-1] / math.Sqrt(ssq)
		cn1 := m[n-2] / math.Sqrt(ssq)
		an := cn + poly(rsn, -2.706056, 4.434685, -2.071190, -0.147981, 0.221157, 0)
		an1 := cn1 + poly(rsn, -3.582633, 5.682633, -1.752461, -0.293762, 0.042981, 0)
		phi := (ssq - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		a[n-1], a[n-2] = an, an1
		a[0], a[1] = -an, -an1
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	}

	// W = (Σ aᵢ x₍ᵢ₎)² / Σ (xᵢ - x̄)².
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	var num, den float64
	for i, v := range x {
		num += a[i] * v
		den += (v - mean) * (v - mean)
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	return w, shapiroPValue(w, n)
}

// shapiroPValue maps W to an upper-tail p-value via Royston's normalizing
// transforms.
func shapiroPValue(w float64, n int) float64 {
	switch {
	case n == 3:
		// Exact small-sample result.
		p := 6.0 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return clamp01(p)
	case n <= 11:
		fn := float64(n)
		g := -2.273 + 0.459*fn
		mu := 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sigma := math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
		z := (-math.Log(g-math.Log(1-w)) - mu) / sigma
		return clamp01(1 - stdNormal.CDF(z))
	default:
		ln := math.Log(float64(n))
		mu := -1.5861 - 0.31082*ln - 0.083751*ln*ln + 0.0038915*ln*ln*ln
		sigma := math.Exp(-0.4803 - 0.082676*ln + 0.0030302*ln*ln)
		z := (math.Log(1-w) - mu) / sigma
		return clamp01(1 - stdNormal.CDF(z))
	}
}

func poly(x float64, c5, c4, c3, c2, c1, c0 float64) float64 {
	return ((((c5*x+c4)*x+c3)*x+c2)*x+c1)*x + c0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
