package stats

import "gonum.org/v1/gonum/stat"

// CorrelationMatrix holds a Pearson correlation matrix over named columns.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Pearson computes the pairwise Pearson correlation matrix for the given
// columns. Columns must all have the same length.
func Pearson(names []string, columns [][]float64) CorrelationMatrix {
	n := len(columns)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := stat.Correlation(columns[i], columns[j], nil)
			values[i][j] = r
			values[j][i] = r
		}
	}
	return CorrelationMatrix{Columns: names, Values: values}
}

// Strongest returns the pair of distinct columns with the highest absolute
// correlation, or ok=false for matrices smaller than 2x2.
func (m CorrelationMatrix) Strongest() (colA, colB string, r float64, ok bool) {
	best := -1.0
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if abs := absFloat(m.Values[i][j]); abs > best {
				best = abs
				colA, colB, r = m.Columns[i], m.Columns[j], m.Values[i][j]
				ok = true
			}
		}
	}
	return colA, colB, r, ok
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
