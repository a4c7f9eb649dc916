package ingest

import (
	"strconv"
	"strings"
)

// table is the cleaned in-memory form of an ingested CSV: a header plus
// string-valued rows. Nulls are empty strings.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) rowCount() int { return len(t.rows) }

func (t *table) colCount() int { return len(t.header) }

// cell returns the value at (row, col), or "" when the row is ragged.
func (t *table) cell(row, col int) string {
	if col >= len(t.rows[row]) {
		return ""
	}
	return t.rows[row][col]
}

// numericColumn returns every parseable value of a column, skipping nulls
// and non-numeric cells.
func (t *table) numericColumn(col int) []float64 {
	out := make([]float64, 0, len(t.rows))
	for i := range t.rows {
		cell := strings.TrimSpace(t.cell(i, col))
		if cell == "" {
			continue
		}
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// nullCount returns the number of empty cells in a column.
func (t *table) nullCount(col int) int {
	n := 0
	for i := range t.rows {
		if strings.TrimSpace(t.cell(i, col)) == "" {
			n++
		}
	}
	return n
}

// valueCounts tallies the distinct non-null values of a column.
func (t *table) valueCounts(col int) map[string]int {
	counts := make(map[string]int)
	for i := range t.rows {
		v := strings.TrimSpace(t.cell(i, col))
		if v == "" {
			continue
		}
		counts[v]++
	}
	return counts
}
