package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/reconstruct"
	"github.com/datachat-ai/datachat/internal/stats"
)

// visualization writes one histogram per numeric column and one bar chart per
// low-cardinality categorical column, returning the file paths alongside
// per-column summary statistics.
func (r *Registry) visualization(_ context.Context, _ string, tbl *reconstruct.Table) *agent.Response {
	numeric := r.numericColumns(tbl)
	categorical := tbl.CategoricalColumnNames(maxBarCardinality)
	if len(numeric) == 0 && len(categorical) == 0 {
		return noNumericResponse()
	}

	var b strings.Builder
	b.WriteString("## Visualizações Geradas\n\n")
	payload := make(map[string]any)
	var paths []string

	for _, col := range numeric {
		values := tbl.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		path, err := r.renderer.Histogram(tbl.Source, col, values)
		if err != nil {
			r.logger.Warn("histogram failed", "column", col, "error", err)
			continue
		}
		paths = append(paths, path)
		d := stats.Describe(values)
		fmt.Fprintf(&b, "- Histograma de %s: %s (Média %s, Desvio Padrão %s)\n",
			col, path, fmtNum(d.Mean), fmtNum(d.Std))
		payload[col] = d
	}

	for _, col := range categorical {
		counts := tbl.ValueCounts(col)
		if len(counts) == 0 {
			continue
		}
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		values := make([]float64, len(labels))
		for i, label := range labels {
			values[i] = float64(counts[label])
		}
		path, err := r.renderer.BarChart(tbl.Source, col, labels, values)
		if err != nil {
			r.logger.Warn("bar chart failed", "column", col, "error", err)
			continue
		}
		paths = append(paths, path)
		fmt.Fprintf(&b, "- Gráfico de barras de %s: %s (%d categorias)\n", col, path, len(labels))
		payload[col] = counts
	}

	if len(paths) == 0 {
		return agent.Failure("Não foi possível gerar visualizações para este conjunto de dados.", agent.KindInternal)
	}

	resp := statsResponse(b.String(), map[string]any{"visualization": payload}, 0.9)
	resp.Metadata.Charts = paths
	return resp
}

// renderHistograms emits histograms for the given columns, logging and
// skipping failures. Used by the distribution handler.
func (r *Registry) renderHistograms(tbl *reconstruct.Table, columns []string) []string {
	var paths []string
	for _, col := range columns {
		values := tbl.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		path, err := r.renderer.Histogram(tbl.Source, col, values)
		if err != nil {
			r.logger.Warn("histogram failed", "column", col, "error", err)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}
