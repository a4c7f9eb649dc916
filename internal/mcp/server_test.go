package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/ingest"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

// mockOrchestrator implements answerer for testing.
type mockOrchestrator struct {
	lastQuery string
	response  *agent.Response
	err       error
}

func (m *mockOrchestrator) Answer(_ context.Context, query, sessionID string) (*agent.Response, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	if sessionID == "" {
		sessionID = "sess-mcp"
	}
	return &agent.Response{
		Content:  "Média: 42.0000",
		Success:  true,
		Metadata: agent.Metadata{SessionID: sessionID, Intent: "central_tendency"},
	}, nil
}

// mockIngestor implements ingestor for testing.
type mockIngestor struct {
	lastPath string
	err      error
}

func (m *mockIngestor) Ingest(_ context.Context, path string) (*ingest.Report, error) {
	m.lastPath = path
	if m.err != nil {
		return nil, m.err
	}
	return &ingest.Report{Source: path, RowsBefore: 100, RowsAfter: 98}, nil
}

// mockStore implements vectordb.VectorStore for testing.
type mockStore struct {
	chunks []vectordb.Chunk
}

func (m *mockStore) Insert(_ context.Context, chunk vectordb.Chunk) error {
	m.chunks = append(m.chunks, chunk)
	return nil
}

func (m *mockStore) Match(_ context.Context, _ []float32, _ float64, _ int) ([]vectordb.MatchResult, error) {
	return nil, nil
}

func (m *mockStore) Select(_ context.Context, filter *vectordb.ChunkFilter, limit int) ([]vectordb.Chunk, error) {
	var out []vectordb.Chunk
	for _, c := range m.chunks {
		if filter != nil && filter.Type != nil && c.Metadata.Type != *filter.Type {
			continue
		}
		if filter != nil && filter.Source != nil && c.Metadata.Source != *filter.Source {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) DeleteSource(_ context.Context, _ string) error { return nil }
func (m *mockStore) Persist(_ context.Context, _ string) error      { return nil }
func (m *mockStore) Load(_ context.Context, _ string) error         { return nil }
func (m *mockStore) Count() int                                     { return len(m.chunks) }

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not text: %T", result.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"ask_dataset", askDatasetTool, "ask_dataset"},
		{"ingest_csv", ingestCSVTool, "ingest_csv"},
		{"dataset_overview", datasetOverviewTool, "dataset_overview"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	store := &mockStore{}
	srv := NewServer(&mockOrchestrator{}, &mockIngestor{}, store)

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.store != store {
		t.Error("store not set correctly")
	}
}

func TestHandleAskDataset(t *testing.T) {
	ctx := context.Background()

	t.Run("answered question", func(t *testing.T) {
		orch := &mockOrchestrator{}
		srv := NewServer(orch, &mockIngestor{}, &mockStore{})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "qual a média de Amount?",
		}

		result, err := srv.handleAskDataset(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if orch.lastQuery != "qual a média de Amount?" {
			t.Errorf("query = %q", orch.lastQuery)
		}
		text := textContent(t, result)
		if !strings.Contains(text, "Média") {
			t.Errorf("answer missing content: %q", text)
		}
		if !strings.Contains(text, "sessão: sess-mcp") {
			t.Errorf("answer missing session id: %q", text)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		srv := NewServer(&mockOrchestrator{}, &mockIngestor{}, &mockStore{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleAskDataset(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("refusal surfaces as tool error", func(t *testing.T) {
		orch := &mockOrchestrator{response: &agent.Response{
			Content:  "Nenhum dado disponível.",
			Success:  false,
			Metadata: agent.Metadata{SessionID: "s", Error: "empty_index"},
		}}
		srv := NewServer(orch, &mockIngestor{}, &mockStore{})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "oi"}

		result, err := srv.handleAskDataset(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("failed response should map to a tool error")
		}
	})
}

func TestHandleIngestCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ing := &mockIngestor{}
		srv := NewServer(&mockOrchestrator{}, ing, &mockStore{})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"path": "fraud.csv"}

		result, err := srv.handleIngestCSV(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if ing.lastPath != "fraud.csv" {
			t.Errorf("path = %q", ing.lastPath)
		}
		text := textContent(t, result)
		if !strings.Contains(text, "98 rows kept") {
			t.Errorf("summary = %q", text)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		srv := NewServer(&mockOrchestrator{}, &mockIngestor{}, &mockStore{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleIngestCSV(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing path")
		}
	})

	t.Run("ingestion failure", func(t *testing.T) {
		ing := &mockIngestor{err: agent.Errorf(agent.KindNotFound, "no such file")}
		srv := NewServer(&mockOrchestrator{}, ing, &mockStore{})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"path": "missing.csv"}

		result, err := srv.handleIngestCSV(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error on ingestion failure")
		}
	})
}

func TestHandleDatasetOverview(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{chunks: []vectordb.Chunk{
		{
			ID:   "fraud.csv:0000",
			Text: "Dataset fraud.csv com 100 linhas e 4 colunas.",
			Metadata: vectordb.ChunkMetadata{
				Source: "fraud.csv", ChunkIndex: 0, Type: vectordb.ChunkDatasetOverview,
			},
		},
		{
			ID:   "fraud.csv:0003",
			Text: `"Time","Amount"` + "\n" + `"1","9.99"`,
			Metadata: vectordb.ChunkMetadata{
				Source: "fraud.csv", ChunkIndex: 3, Type: vectordb.ChunkCSVRows,
			},
		},
		{
			ID:   "sales.csv:0000",
			Text: "Dataset sales.csv com 10 linhas e 2 colunas.",
			Metadata: vectordb.ChunkMetadata{
				Source: "sales.csv", ChunkIndex: 0, Type: vectordb.ChunkDatasetOverview,
			},
		},
	}}
	srv := NewServer(&mockOrchestrator{}, &mockIngestor{}, store)

	t.Run("all datasets", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleDatasetOverview(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := textContent(t, result)
		if !strings.Contains(text, "fraud.csv") || !strings.Contains(text, "sales.csv") {
			t.Errorf("overview missing datasets: %q", text)
		}
		if strings.Contains(text, `"Time","Amount"`) {
			t.Error("row chunks should not appear in the overview")
		}
	})

	t.Run("single dataset", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"dataset": "sales.csv"}

		result, err := srv.handleDatasetOverview(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := textContent(t, result)
		if strings.Contains(text, "fraud.csv") {
			t.Errorf("filter ignored: %q", text)
		}
	})

	t.Run("empty store", func(t *testing.T) {
		emptySrv := NewServer(&mockOrchestrator{}, &mockIngestor{}, &mockStore{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := emptySrv.handleDatasetOverview(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty store should not be a tool error")
		}
		if !strings.Contains(textContent(t, result), "datachat ingest") {
			t.Error("expected guidance to ingest first")
		}
	})
}
