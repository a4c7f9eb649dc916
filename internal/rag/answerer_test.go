package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/db"
	"github.com/datachat-ai/datachat/internal/llm"
	"github.com/datachat-ai/datachat/internal/memory"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

type fakeEmbedder struct {
	fail bool
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.fail {
		return nil, errors.New("embedding down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int { return 3 }
func (e *fakeEmbedder) Name() string    { return "fake" }

type fakeStore struct {
	matches []vectordb.MatchResult
}

func (s *fakeStore) Insert(context.Context, vectordb.Chunk) error { return nil }

func (s *fakeStore) Match(context.Context, []float32, float64, int) ([]vectordb.MatchResult, error) {
	return s.matches, nil
}

func (s *fakeStore) Select(context.Context, *vectordb.ChunkFilter, int) ([]vectordb.Chunk, error) {
	return nil, nil
}

func (s *fakeStore) DeleteSource(context.Context, string) error { return nil }
func (s *fakeStore) Persist(context.Context, string) error      { return nil }
func (s *fakeStore) Load(context.Context, string) error         { return nil }
func (s *fakeStore) Count() int                                 { return len(s.matches) }

type fakeChat struct {
	fail     bool
	lastUser string
	reply    string
}

func (c *fakeChat) Chat(_ context.Context, _, user string, _ llm.ChatOptions) (*llm.ChatResult, error) {
	c.lastUser = user
	if c.fail {
		return nil, errors.New("all providers failed")
	}
	return &llm.ChatResult{Content: c.reply, Model: "test-model", Success: true}, nil
}

func matchesWith(sims ...float64) []vectordb.MatchResult {
	out := make([]vectordb.MatchResult, len(sims))
	for i, s := range sims {
		out[i] = vectordb.MatchResult{
			Chunk: vectordb.Chunk{
				Text:     strings.Repeat("dado ", i+1),
				Metadata: vectordb.ChunkMetadata{Source: "fraud.csv", ChunkIndex: i},
			},
			Similarity: s,
		}
	}
	return out
}

func newTestAnswerer(t *testing.T, store *fakeStore, chat *fakeChat, emb *fakeEmbedder) (*Answerer, *memory.Manager) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	mem := memory.NewManager(memory.NewStore(database), cfg.Memory)
	return NewAnswerer(store, emb, chat, mem, cfg, nil), mem
}

func session(t *testing.T, mem *memory.Manager) string {
	t.Helper()
	id, err := mem.InitializeSession(context.Background(), "", "", nil)
	require.NoError(t, err)
	return id
}

func TestAnswerGroundedTurn(t *testing.T) {
	store := &fakeStore{matches: matchesWith(0.9, 0.8, 0.7)}
	chat := &fakeChat{reply: "A média de Amount é 42."}
	a, mem := newTestAnswerer(t, store, chat, &fakeEmbedder{})
	sid := session(t, mem)

	resp, err := a.Answer(context.Background(), sid, "qual a média de Amount?")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "A média de Amount é 42.", resp.Content)
	assert.Equal(t, 3, resp.Metadata.ChunksFound)
	assert.Equal(t, 3, resp.Metadata.ChunksUsed)
	assert.InDelta(t, 0.8, resp.Metadata.AvgSimilarity, 1e-9)
	assert.InDelta(t, 0.9, resp.Metadata.TopSimilarity, 1e-9)
	assert.InDelta(t, 0.8, resp.Confidence, 1e-9, "confidence is the mean similarity")
	assert.Equal(t, "test-model", resp.Metadata.ModelUsed)

	assert.Contains(t, chat.lastUser, "## Contexto dos dados")
	assert.Contains(t, chat.lastUser, "## Pergunta")

	// Both turns persisted.
	stats, err := mem.GetMemoryStats(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UserQueries)
	assert.Equal(t, 1, stats.AgentResponses)
}

func TestAnswerUsesTopFiveOnly(t *testing.T) {
	store := &fakeStore{matches: matchesWith(0.95, 0.9, 0.85, 0.8, 0.75, 0.7, 0.65)}
	chat := &fakeChat{reply: "ok"}
	a, mem := newTestAnswerer(t, store, chat, &fakeEmbedder{})

	resp, err := a.Answer(context.Background(), session(t, mem), "pergunta")
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Metadata.ChunksFound)
	assert.Equal(t, 5, resp.Metadata.ChunksUsed)
}

func TestAnswerNoChunks(t *testing.T) {
	a, mem := newTestAnswerer(t, &fakeStore{}, &fakeChat{reply: "x"}, &fakeEmbedder{})
	sid := session(t, mem)

	resp, err := a.Answer(context.Background(), sid, "algo fora do domínio")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Zero(t, resp.Confidence)
	assert.Contains(t, resp.Content, "dados relevantes")

	stats, err := mem.GetMemoryStats(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AgentResponses, "the no-data turn is still recorded")
}

func TestAnswerChatFailureFallsBackToEcho(t *testing.T) {
	store := &fakeStore{matches: matchesWith(0.9, 0.6)}
	a, mem := newTestAnswerer(t, store, &fakeChat{fail: true}, &fakeEmbedder{})

	resp, err := a.Answer(context.Background(), session(t, mem), "pergunta")
	require.NoError(t, err)
	assert.True(t, resp.Success, "provider failure must not fail the request")
	assert.Contains(t, resp.Content, "similaridade 0.90")
	assert.Contains(t, resp.Content, "similaridade 0.60")
}

func TestAnswerEmbeddingFailureFailsRequest(t *testing.T) {
	a, mem := newTestAnswerer(t, &fakeStore{}, &fakeChat{}, &fakeEmbedder{fail: true})

	_, err := a.Answer(context.Background(), session(t, mem), "pergunta")
	require.Error(t, err)
	assert.Equal(t, agent.KindProvider, agent.KindOf(err))
}

func TestAnswerIncludesRecentTranscript(t *testing.T) {
	store := &fakeStore{matches: matchesWith(0.9)}
	chat := &fakeChat{reply: "ok"}
	a, mem := newTestAnswerer(t, store, chat, &fakeEmbedder{})
	sid := session(t, mem)

	ctx := context.Background()
	require.NoError(t, mem.AddUserQuery(ctx, sid, "primeira pergunta", nil))
	require.NoError(t, mem.AddAgentResponse(ctx, sid, "primeira resposta", 10, 0.9, "m", nil))

	resp, err := a.Answer(ctx, sid, "e agora?")
	require.NoError(t, err)
	assert.Contains(t, chat.lastUser, "## Conversa recente")
	assert.Contains(t, chat.lastUser, "[user_query] primeira pergunta")
	assert.Contains(t, chat.lastUser, "[agent_response] primeira resposta")
	assert.Equal(t, 2, resp.Metadata.PreviousInteractions)
}

func TestTruncateToTokens(t *testing.T) {
	text := strings.TrimRight(strings.Repeat("uma linha de contexto\n", 50), "\n")
	out := truncateToTokens(text, 40)
	assert.Less(t, tokenCount(out), tokenCount(text))
	assert.True(t, strings.HasSuffix(out, "contexto"), "truncation keeps whole lines")

	assert.Equal(t, "curto", truncateToTokens("curto", 100))
}
