package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/reconstruct"
	"github.com/datachat-ai/datachat/internal/stats"
)

// centralTendency reports mean, median and mode per numeric column.
func (r *Registry) centralTendency(_ context.Context, _ string, tbl *reconstruct.Table) *agent.Response {
	columns := r.numericColumns(tbl)
	if len(columns) == 0 {
		return noNumericResponse()
	}

	var b strings.Builder
	b.WriteString("## Medidas de Tendência Central\n\n")
	payload := make(map[string]any, len(columns))
	for _, col := range columns {
		values := tbl.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		d := stats.Describe(values)
		mode := stats.Mode(values)

		fmt.Fprintf(&b, "### %s\n", col)
		fmt.Fprintf(&b, "- Média: %s\n", fmtNum(d.Mean))
		fmt.Fprintf(&b, "- Mediana: %s\n", fmtNum(d.Median))
		fmt.Fprintf(&b, "- Moda: %s\n\n", fmtNum(mode))

		payload[col] = map[string]any{
			"mean":   d.Mean,
			"median": d.Median,
			"mode":   mode,
			"count":  d.Count,
		}
	}

	return statsResponse(b.String(), map[string]any{"central_tendency": payload}, 0.95)
}

// variability reports standard deviation, variance and the coefficient of
// variation per numeric column.
func (r *Registry) variability(_ context.Context, _ string, tbl *reconstruct.Table) *agent.Response {
	columns := r.numericColumns(tbl)
	if len(columns) == 0 {
		return noNumericResponse()
	}

	var b strings.Builder
	b.WriteString("## Medidas de Variabilidade\n\n")
	payload := make(map[string]any, len(columns))
	for _, col := range columns {
		values := tbl.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		d := stats.Describe(values)
		variance := stats.Variance(values)
		cv := stats.CoefVariation(values)

		fmt.Fprintf(&b, "### %s\n", col)
		fmt.Fprintf(&b, "- Desvio Padrão: %s\n", fmtNum(d.Std))
		fmt.Fprintf(&b, "- Variância: %s\n", fmtNum(variance))
		fmt.Fprintf(&b, "- Coeficiente de Variação: %s%%\n\n", fmtNum(cv))

		payload[col] = map[string]any{
			"std":               d.Std,
			"variance":          variance,
			"coef_of_variation": cv,
		}
	}

	return statsResponse(b.String(), map[string]any{"variability": payload}, 0.95)
}

// interval reports minimum, maximum and amplitude per numeric column.
func (r *Registry) interval(_ context.Context, _ string, tbl *reconstruct.Table) *agent.Response {
	columns := r.numericColumns(tbl)
	if len(columns) == 0 {
		return noNumericResponse()
	}

	var b strings.Builder
	b.WriteString("## Intervalo dos Valores\n\n")
	payload := make(map[string]any, len(columns))
	for _, col := range columns {
		values := tbl.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		d := stats.Describe(values)
		amplitude := d.Max - d.Min

		fmt.Fprintf(&b, "### %s\n", col)
		fmt.Fprintf(&b, "- Mínimo: %s\n", fmtNum(d.Min))
		fmt.Fprintf(&b, "- Máximo: %s\n", fmtNum(d.Max))
		fmt.Fprintf(&b, "- Amplitude: %s\n\n", fmtNum(amplitude))

		payload[col] = map[string]any{
			"min":       d.Min,
			"max":       d.Max,
			"amplitude": amplitude,
		}
	}

	return statsResponse(b.String(), map[string]any{"interval": payload}, 0.95)
}
