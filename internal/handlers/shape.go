package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/reconstruct"
	"github.com/datachat-ai/datachat/internal/stats"
)

// distribution reports normality (Shapiro-Wilk), skewness and kurtosis per
// numeric column and delegates histogram rendering to the visualization path.
func (r *Registry) distribution(ctx context.Context, query string, tbl *reconstruct.Table) *agent.Response {
	columns := r.numericColumns(tbl)
	if len(columns) == 0 {
		return noNumericResponse()
	}

	var b strings.Builder
	b.WriteString("## Análise de Distribuição\n\n")
	payload := make(map[string]any, len(columns))
	for _, col := range columns {
		values := tbl.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		shape := stats.Shape(values)

		verdict := "Não normal"
		if shape.Normal {
			verdict = "Normal"
		}
		fmt.Fprintf(&b, "### %s\n", col)
		fmt.Fprintf(&b, "- Normalidade: %s (Shapiro-Wilk p=%s, W=%s", verdict, fmtNum(shape.PValue), fmtNum(shape.W))
		if shape.Truncated {
			fmt.Fprintf(&b, ", amostra de %d valores", shape.Samples)
		}
		b.WriteString(")\n")
		fmt.Fprintf(&b, "- Assimetria: %s\n", fmtNum(shape.Skewness))
		fmt.Fprintf(&b, "- Curtose: %s\n\n", fmtNum(shape.Kurtosis))

		payload[col] = shape
	}

	resp := statsResponse(b.String(), map[string]any{"distribution": payload}, 0.9)

	// Histograms give the distribution answer its visual half.
	paths := r.renderHistograms(tbl, columns)
	if len(paths) > 0 {
		resp.Metadata.Charts = paths
		fmt.Fprintf(&b, "Histogramas gerados: %s\n", strings.Join(paths, " "))
		resp.Content = b.String()
	}
	return resp
}

// correlation renders a bounded Pearson sub-matrix plus the strongest pair.
func (r *Registry) correlation(_ context.Context, _ string, tbl *reconstruct.Table) *agent.Response {
	columns := r.numericColumns(tbl)
	if len(columns) < 2 {
		return agent.Failure("São necessárias pelo menos duas colunas numéricas para calcular correlações.", agent.KindNotFound)
	}

	shown := columns
	if len(shown) > maxCorrelationColumns {
		shown = shown[:maxCorrelationColumns]
	}
	cols := tbl.NumericMatrix(shown)
	if len(cols) == 0 || len(cols[0]) < 2 {
		return agent.Failure("Não há linhas completas suficientes para calcular correlações.", agent.KindNotFound)
	}

	matrix := stats.Pearson(shown, cols)

	var b strings.Builder
	b.WriteString("## Matriz de Correlação (Pearson)\n\n")
	b.WriteString("| |")
	for _, c := range shown {
		fmt.Fprintf(&b, " %s |", c)
	}
	b.WriteString("\n|---|")
	for range shown {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, row := range matrix.Values {
		fmt.Fprintf(&b, "| %s |", shown[i])
		for _, v := range row {
			fmt.Fprintf(&b, " %s |", fmtNum(v))
		}
		b.WriteString("\n")
	}

	if colA, colB, coef, ok := matrix.Strongest(); ok {
		fmt.Fprintf(&b, "\nPar mais correlacionado: %s e %s (r=%s)\n", colA, colB, fmtNum(coef))
	}
	if len(shown) < len(columns) {
		fmt.Fprintf(&b, "\nExibindo as primeiras %d de %d colunas numéricas.\n", len(shown), len(columns))
	}

	return statsResponse(b.String(), map[string]any{"correlation": matrix}, 0.9)
}

// outliers applies the IQR fences per numeric column.
func (r *Registry) outliers(_ context.Context, _ string, tbl *reconstruct.Table) *agent.Response {
	columns := r.numericColumns(tbl)
	if len(columns) == 0 {
		return noNumericResponse()
	}

	var b strings.Builder
	b.WriteString("## Detecção de Outliers (método IQR)\n\n")
	payload := make(map[string]any, len(columns))
	for _, col := range columns {
		values := tbl.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		s := stats.IQROutliers(values)

		fmt.Fprintf(&b, "### %s\n", col)
		fmt.Fprintf(&b, "- Abaixo do limite inferior (%s): %d\n", fmtNum(s.LowerFence), s.Lower)
		fmt.Fprintf(&b, "- Acima do limite superior (%s): %d\n", fmtNum(s.UpperFence), s.Upper)
		fmt.Fprintf(&b, "- Total: %d (%s%%)\n\n", s.Total, fmtNum(s.Percent))

		payload[col] = s
	}

	return statsResponse(b.String(), map[string]any{"outliers": payload}, 0.95)
}
