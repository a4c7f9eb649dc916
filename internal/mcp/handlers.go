package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datachat-ai/datachat/internal/vectordb"
)

// handleAskDataset routes a natural language question through the orchestrator.
func (s *Server) handleAskDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	sessionID := request.GetString("session_id", "")

	resp, err := s.orch.Answer(ctx, query, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(resp.Content)
	b.WriteString(fmt.Sprintf("\n\n(sessão: %s", resp.Metadata.SessionID))
	if resp.Metadata.Intent != "" {
		b.WriteString(fmt.Sprintf(", intenção: %s", resp.Metadata.Intent))
	}
	b.WriteString(")")

	if !resp.Success {
		return mcp.NewToolResultError(b.String()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleIngestCSV runs the ingestion pipeline on a CSV file.
func (s *Server) handleIngestCSV(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	report, err := s.ing.Ingest(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %v", err)), nil
	}

	summary := fmt.Sprintf(
		"Ingested %s: %d rows in, %d rows kept, %d chunks indexed (%d embedding failures).",
		report.Source, report.RowsBefore, report.RowsAfter, len(report.Chunks), report.EmbeddingErrors,
	)
	return mcp.NewToolResultText(summary), nil
}

// handleDatasetOverview returns the stored overview chunks, optionally
// restricted to one dataset source.
func (s *Server) handleDatasetOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chunkType := vectordb.ChunkDatasetOverview
	filter := &vectordb.ChunkFilter{Type: &chunkType}
	if dataset := request.GetString("dataset", ""); dataset != "" {
		filter.Source = &dataset
	}

	chunks, err := s.store.Select(ctx, filter, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("overview lookup failed: %v", err)), nil
	}
	if len(chunks) == 0 {
		return mcp.NewToolResultText("No datasets indexed yet. Run `datachat ingest <file.csv>` first."), nil
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", c.Metadata.Source, c.Text))
	}
	return mcp.NewToolResultText(strings.Join(parts, "\n\n")), nil
}
