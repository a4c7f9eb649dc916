package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/ingest"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// answerer abstracts the orchestrator for the MCP layer.
type answerer interface {
	Answer(ctx context.Context, query, sessionID string) (*agent.Response, error)
}

// ingestor abstracts the ingestion pipeline for the MCP layer.
type ingestor interface {
	Ingest(ctx context.Context, path string) (*ingest.Report, error)
}

// Server wraps an MCP server that exposes dataset question answering
// and ingestion tools over stdio.
type Server struct {
	orch  answerer
	ing   ingestor
	store vectordb.VectorStore
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(orch answerer, ing ingestor, store vectordb.VectorStore) *Server {
	s := &Server{
		orch:  orch,
		ing:   ing,
		store: store,
	}

	s.mcp = server.NewMCPServer(
		"datachat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askDatasetTool, s.handleAskDataset)
	s.mcp.AddTool(ingestCSVTool, s.handleIngestCSV)
	s.mcp.AddTool(datasetOverviewTool, s.handleDatasetOverview)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
