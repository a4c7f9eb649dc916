// Package reconstruct rebuilds an in-memory table from the chunk texts in
// the vector store. It is the inverse of ingestion and the only data source
// the statistical handlers are allowed to analyze.
package reconstruct

import (
	"strconv"
	"strings"
)

// Table is a reassembled dataset: column names plus string-valued rows.
type Table struct {
	Source  string
	Columns []string
	Rows    [][]string
}

func (t *Table) RowCount() int { return len(t.Rows) }

func (t *Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column exists, case-insensitively.
func (t *Table) HasColumn(name string) bool { return t.columnIndex(name) >= 0 }

// NumericColumn returns the parseable values of the named column, skipping
// empty and non-numeric cells. Returns nil for unknown columns.
func (t *Table) NumericColumn(name string) []float64 {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		if v, ok := parseNumber(row[idx]); ok {
			out = append(out, v)
		}
	}
	return out
}

// NumericColumnNames returns the columns where at least half of the non-empty
// cells parse as numbers, excluding the given names.
func (t *Table) NumericColumnNames(exclude ...string) []string {
	var names []string
	for i, col := range t.Columns {
		if containsFold(exclude, col) {
			continue
		}
		nonEmpty, numeric := 0, 0
		for _, row := range t.Rows {
			if i >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" {
				continue
			}
			nonEmpty++
			if _, ok := parseNumber(cell); ok {
				numeric++
			}
		}
		if nonEmpty > 0 && numeric*2 >= nonEmpty {
			names = append(names, col)
		}
	}
	return names
}

// NumericMatrix returns the named columns as aligned float slices, keeping
// only complete rows (rows where every requested column parses).
func (t *Table) NumericMatrix(names []string) [][]float64 {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.columnIndex(name)
		if idx[i] < 0 {
			return nil
		}
	}

	cols := make([][]float64, len(names))
	for _, row := range t.Rows {
		values := make([]float64, len(names))
		complete := true
		for i, c := range idx {
			if c >= len(row) {
				complete = false
				break
			}
			v, ok := parseNumber(row[c])
			if !ok {
				complete = false
				break
			}
			values[i] = v
		}
		if !complete {
			continue
		}
		for i := range cols {
			cols[i] = append(cols[i], values[i])
		}
	}
	return cols
}

// CategoricalColumnNames returns non-numeric columns with a distinct value
// count of at most maxCardinality.
func (t *Table) CategoricalColumnNames(maxCardinality int) []string {
	numeric := make(map[string]struct{})
	for _, n := range t.NumericColumnNames() {
		numeric[strings.ToLower(n)] = struct{}{}
	}
	var names []string
	for i, col := range t.Columns {
		if _, ok := numeric[strings.ToLower(col)]; ok {
			continue
		}
		distinct := make(map[string]struct{})
		for _, row := range t.Rows {
			if i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				distinct[v] = struct{}{}
			}
		}
		if len(distinct) > 0 && len(distinct) <= maxCardinality {
			names = append(names, col)
		}
	}
	return names
}

// ValueCounts tallies the distinct non-empty values of a column.
func (t *Table) ValueCounts(name string) map[string]int {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			counts[v]++
		}
	}
	return counts
}

func parseNumber(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
