package stats

import (
	"fmt"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/stat"
)

// ClusterSummary describes one K-Means cluster.
type ClusterSummary struct {
	Size    int     `json:"size"`
	Percent float64 `json:"percent"`
}

// ClusteringResult is the outcome of a K-Means partition.
type ClusteringResult struct {
	K        int              `json:"k"`
	Clusters []ClusterSummary `json:"clusters"`
	Inertia  float64          `json:"inertia"`
	Balanced bool             `json:"balanced"`
}

// KMeans partitions the rows defined by the given columns into k clusters.
// Columns are standard-scaled before clustering so no single unit dominates
// the distance metric. Balance: the ratio of the largest to the smallest
// cluster share must stay under 3.
func KMeans(columns [][]float64, k int) (*ClusteringResult, error) {
	if len(columns) == 0 || len(columns[0]) == 0 {
		return nil, fmt.Errorf("no numeric data to cluster")
	}
	n := len(columns[0])
	if k < 2 {
		return nil, fmt.Errorf("k must be at least 2, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot form %d clusters from %d rows", k, n)
	}

	scaled := make([][]float64, len(columns))
	for i, col := range columns {
		scaled[i] = standardScale(col)
	}

	obs := make(clusters.Observations, n)
	for row := 0; row < n; row++ {
		point := make(clusters.Coordinates, len(scaled))
		for col := range scaled {
			point[col] = scaled[col][row]
		}
		obs[row] = point
	}

	km := kmeans.New()
	partition, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("kmeans partition: %w", err)
	}

	result := &ClusteringResult{K: k}
	minPct, maxPct := 100.0, 0.0
	for _, c := range partition {
		size := len(c.Observations)
		pct := float64(size) / float64(n) * 100
		result.Clusters = append(result.Clusters, ClusterSummary{Size: size, Percent: pct})
		if pct < minPct {
			minPct = pct
		}
		if pct > maxPct {
			maxPct = pct
		}

		for _, o := range c.Observations {
			result.Inertia += squaredDistance(o.Coordinates(), c.Center)
		}
	}
	result.Balanced = minPct > 0 && maxPct/minPct < 3

	return result, nil
}

func standardScale(values []float64) []float64 {
	mean := stat.Mean(values, nil)
	std := safeStd(values)
	out := make([]float64, len(values))
	for i, v := range values {
		if std == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}

func squaredDistance(a, b clusters.Coordinates) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
