// Package handlers implements the specialized statistical responders. Every
// handler reconstructs the dataset from the vector store, computes its
// statistic over the numeric columns and renders a Portuguese-labelled
// summary with a machine-readable statistics payload in the metadata.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/charts"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/reconstruct"
)

// ingestFirstMessage is returned whenever the dataset cannot be rebuilt from
// the vector store.
const ingestFirstMessage = "Nenhum dado disponível para análise. Execute a ingestão de um arquivo CSV primeiro."

// maxCorrelationColumns bounds the rendered correlation sub-matrix.
const maxCorrelationColumns = 8

// maxBarCardinality is the distinct-value ceiling for categorical bar charts.
const maxBarCardinality = 20

// handlerFunc computes one statistic over a reconstructed table.
type handlerFunc func(ctx context.Context, query string, tbl *reconstruct.Table) *agent.Response

// Registry maps statistical intents to their handlers.
type Registry struct {
	recon    *reconstruct.Reconstructor
	renderer *charts.Renderer
	cfg      *config.Config
	logger   *slog.Logger
	byIntent map[agent.Intent]handlerFunc
}

func NewRegistry(recon *reconstruct.Reconstructor, renderer *charts.Renderer, cfg *config.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{recon: recon, renderer: renderer, cfg: cfg, logger: logger}
	r.byIntent = map[agent.Intent]handlerFunc{
		agent.IntentCentralTendency: r.centralTendency,
		agent.IntentVariability:     r.variability,
		agent.IntentInterval:        r.interval,
		agent.IntentDistribution:    r.distribution,
		agent.IntentCorrelation:     r.correlation,
		agent.IntentOutliers:        r.outliers,
		agent.IntentClustering:      r.clustering,
		agent.IntentVisualization:   r.visualization,
	}
	return r
}

// Supports reports whether the intent has a dedicated handler.
func (r *Registry) Supports(intent agent.Intent) bool {
	_, ok := r.byIntent[intent]
	return ok
}

// Handle dispatches the query to the handler for the intent. The dataset is
// rebuilt from the vector store once per call; when reconstruction fails the
// user is told to ingest data first.
func (r *Registry) Handle(ctx context.Context, intent agent.Intent, query, dataset string) *agent.Response {
	fn, ok := r.byIntent[intent]
	if !ok {
		return agent.Failure(fmt.Sprintf("no statistical handler for intent %s", intent), agent.KindInternal)
	}

	tbl, err := r.recon.Reconstruct(ctx, dataset)
	if err != nil {
		r.logger.Warn("reconstruction failed", "dataset", dataset, "error", err)
		resp := agent.Failure(ingestFirstMessage, agent.KindReconstruction)
		resp.Metadata.Intent = intent
		return resp
	}

	resp := fn(ctx, query, tbl)
	resp.Metadata.Intent = intent
	return resp
}

// numericColumns returns the analyzable columns, always excluding the
// synthetic id.
func (r *Registry) numericColumns(tbl *reconstruct.Table) []string {
	return tbl.NumericColumnNames(r.cfg.Ingestion.IDColumn, "index", "row_id")
}

// noNumericResponse is the shared answer when the table has no numeric column.
func noNumericResponse() *agent.Response {
	return agent.Failure("O conjunto de dados não possui colunas numéricas para esta análise.", agent.KindNotFound)
}

func statsResponse(content string, statistics map[string]any, confidence float64) *agent.Response {
	return &agent.Response{
		Content:    strings.TrimRight(content, "\n") + "\n",
		Success:    true,
		Confidence: confidence,
		Metadata: agent.Metadata{
			AgentsUsed: []string{"statistical_handler"},
			Statistics: statistics,
		},
	}
}

// fmtNum renders a float with up to four decimals, trimming trailing zeros.
func fmtNum(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
