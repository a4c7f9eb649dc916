package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/db"
	"github.com/datachat-ai/datachat/internal/ingest"
	"github.com/datachat-ai/datachat/internal/memory"
)

type stubOrchestrator struct {
	lastQuery string
	fail      bool
}

func (o *stubOrchestrator) Answer(_ context.Context, query, sessionID string) (*agent.Response, error) {
	o.lastQuery = query
	if o.fail {
		return nil, agent.Errorf(agent.KindInternal, "boom")
	}
	if sessionID == "" {
		sessionID = "sess-1"
	}
	return &agent.Response{
		Content:    "## Resposta\n\nA média é 42.",
		Success:    true,
		Confidence: 0.8,
		Metadata:   agent.Metadata{SessionID: sessionID},
	}, nil
}

type stubIngestor struct {
	err error
}

func (i *stubIngestor) Ingest(context.Context, string) (*ingest.Report, error) {
	if i.err != nil {
		return nil, i.err
	}
	return &ingest.Report{Source: "data.csv", RowsBefore: 10, RowsAfter: 9}, nil
}

func newTestServer(t *testing.T, orch *stubOrchestrator, ing *stubIngestor) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	mem := memory.NewManager(memory.NewStore(database), config.DefaultConfig().Memory)
	return New(config.ServerConfig{Port: 0}, orch, ing, mem, nil)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{}, &stubIngestor{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAsk(t *testing.T) {
	orch := &stubOrchestrator{}
	s := newTestServer(t, orch, &stubIngestor{})

	rec := postJSON(t, s.Router(), "/api/ask", askRequest{Query: "qual a média?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "qual a média?", orch.lastQuery)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.ContentHTML)
}

func TestAskHTMLFormat(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{}, &stubIngestor{})

	rec := postJSON(t, s.Router(), "/api/ask", askRequest{Query: "q", Format: "html"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.ContentHTML, "<h2")
}

func TestAskValidation(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{}, &stubIngestor{})

	rec := postJSON(t, s.Router(), "/api/ask", askRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskInternalError(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{fail: true}, &stubIngestor{})

	rec := postJSON(t, s.Router(), "/api/ask", askRequest{Query: "q"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIngest(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{}, &stubIngestor{})

	rec := postJSON(t, s.Router(), "/api/ingest", ingestRequest{Path: "data.csv"})
	require.Equal(t, http.StatusOK, rec.Code)

	var report ingest.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "data.csv", report.Source)
}

func TestIngestNotFound(t *testing.T) {
	ing := &stubIngestor{err: agent.Errorf(agent.KindNotFound, "csv file missing")}
	s := newTestServer(t, &stubOrchestrator{}, ing)

	rec := postJSON(t, s.Router(), "/api/ingest", ingestRequest{Path: "nope.csv"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestBadConfig(t *testing.T) {
	ing := &stubIngestor{err: agent.Errorf(agent.KindConfig, "overlap too large")}
	s := newTestServer(t, &stubOrchestrator{}, ing)

	rec := postJSON(t, s.Router(), "/api/ingest", ingestRequest{Path: "x.csv"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionStats(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{}, &stubIngestor{})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/some-session/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats memory.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.Turns)
}

func TestWebSocketAsk(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{}, &stubIngestor{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsRequest{Type: "ask", Content: "pergunta"}))

	var resp wsResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "response", resp.Type)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Contains(t, resp.Content, "média")
}

func TestWebSocketUnknownType(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{}, &stubIngestor{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsRequest{Type: "nope", Content: "x"}))

	var resp wsResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "error", resp.Type)
}
