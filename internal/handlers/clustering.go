package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/reconstruct"
	"github.com/datachat-ai/datachat/internal/stats"
)

// clustering runs K-Means over the standard-scaled numeric columns, id
// columns excluded, and reports cluster sizes, inertia and a balance verdict.
func (r *Registry) clustering(_ context.Context, _ string, tbl *reconstruct.Table) *agent.Response {
	columns := r.numericColumns(tbl)
	if len(columns) == 0 {
		return noNumericResponse()
	}

	cols := tbl.NumericMatrix(columns)
	if len(cols) == 0 || len(cols[0]) == 0 {
		return agent.Failure("Não há linhas completas suficientes para o agrupamento.", agent.KindNotFound)
	}

	k := r.cfg.Clustering.DefaultK
	result, err := stats.KMeans(cols, k)
	if err != nil {
		return agent.Failure(fmt.Sprintf("Não foi possível agrupar os dados: %v", err), agent.KindInternal)
	}

	verdict := "Desbalanceado"
	if result.Balanced {
		verdict = "Balanceado"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Agrupamento K-Means (k=%d)\n\n", k)
	fmt.Fprintf(&b, "Colunas utilizadas: %s\n\n", strings.Join(columns, " "))
	for i, c := range result.Clusters {
		fmt.Fprintf(&b, "- Cluster %d: %d registros (%s%%)\n", i+1, c.Size, fmtNum(c.Percent))
	}
	fmt.Fprintf(&b, "\nInércia: %s\n", fmtNum(result.Inertia))
	fmt.Fprintf(&b, "Veredito de balanceamento: %s\n", verdict)

	return statsResponse(b.String(), map[string]any{"clustering": result}, 0.9)
}
