// Package orchestrator is the public entry point for answering queries. It
// guards the empty index, manages the session, consults the analysis cache,
// classifies the question and dispatches it to a statistical handler or the
// retrieval-augmented answerer.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/classifier"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/embeddings"
	"github.com/datachat-ai/datachat/internal/handlers"
	"github.com/datachat-ai/datachat/internal/llm"
	"github.com/datachat-ai/datachat/internal/memory"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

const emptyIndexMessage = "Nenhum dado foi indexado ainda. Execute a ingestão de um arquivo CSV antes de fazer perguntas; o assistente responde apenas com base nos dados indexados."

const dataLoadingMessage = "Para carregar um novo conjunto de dados, execute `datachat ingest <arquivo.csv>` ou use o endpoint /api/ingest. A ingestão substitui os chunks do conjunto no índice vetorial."

// chatClient is the subset of the LLM client used for conversation summaries.
type chatClient interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string, opts llm.ChatOptions) (*llm.ChatResult, error)
}

// answerer is the RAG path; split out as an interface for tests.
type answerer interface {
	Answer(ctx context.Context, sessionID, query string) (*agent.Response, error)
}

// Orchestrator wires the pipeline together.
type Orchestrator struct {
	store      vectordb.VectorStore
	mem        *memory.Manager
	classifier *classifier.Classifier
	registry   *handlers.Registry
	rag        answerer
	chat       chatClient
	embedder   embeddings.Embedder
	cfg        *config.Config
	logger     *slog.Logger
}

func New(store vectordb.VectorStore, mem *memory.Manager, cls *classifier.Classifier, registry *handlers.Registry, rag answerer, chat chatClient, embedder embeddings.Embedder, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      store,
		mem:        mem,
		classifier: cls,
		registry:   registry,
		rag:        rag,
		chat:       chat,
		embedder:   embedder,
		cfg:        cfg,
		logger:     logger,
	}
}

// Answer processes one query end to end. sessionID may be empty; the minted
// or re-used id always comes back in the response metadata.
func (o *Orchestrator) Answer(ctx context.Context, query, sessionID string) (*agent.Response, error) {
	start := time.Now()

	// The vector store is the only legitimate data source; an empty index
	// is refused before any classification or embedding happens.
	if o.store.Count() == 0 {
		resp := agent.Failure(emptyIndexMessage, agent.KindEmptyIndex)
		resp.Metadata.SessionID = sessionID
		resp.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()
		return resp, nil
	}

	sid, err := o.mem.InitializeSession(ctx, sessionID, "", nil)
	if err != nil {
		return nil, agent.Wrap(agent.KindInternal, "initialize session", err)
	}

	dataset := o.cfg.Dataset
	cacheKey := memory.AnalysisKey(query, dataset, o.cfg.Retrieval.TopK, o.store.Count())

	var cached agent.Response
	if hit, err := o.mem.GetCachedAnalysis(ctx, sid, cacheKey, &cached); err == nil && hit {
		cached.Metadata.FromCache = true
		cached.Metadata.SessionID = sid
		cached.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()
		return &cached, nil
	}

	cls := o.classifier.Classify(ctx, query)

	var resp *agent.Response
	switch {
	case agent.StatisticalIntents[cls.Intent]:
		resp = o.registry.Handle(ctx, cls.Intent, query, dataset)
		o.persistTurns(ctx, sid, query, resp)
	case cls.Intent == agent.IntentDataLoading:
		resp = &agent.Response{Content: dataLoadingMessage, Success: true, Confidence: cls.Confidence}
		o.persistTurns(ctx, sid, query, resp)
	default:
		resp, err = o.rag.Answer(ctx, sid, query)
		if err != nil {
			return nil, err
		}
	}

	resp.Metadata.SessionID = sid
	resp.Metadata.Intent = cls.Intent
	resp.Metadata.MemoryEnabled = true
	if resp.Metadata.ProcessingTimeMS == 0 {
		resp.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()
	}

	if o.mem.ShouldCache(resp.Success, resp.Metadata.ProcessingTimeMS, len(resp.Metadata.Statistics) > 0) {
		if err := o.mem.CacheAnalysisResult(ctx, sid, cacheKey, resp, o.cfg.Memory.CacheExpiryHours); err != nil {
			o.logger.Warn("failed to cache analysis", "error", err)
		}
	}

	o.enrichMemoryStats(ctx, sid, resp)
	o.maybeSummarize(ctx, sid, resp)

	return resp, nil
}

func (o *Orchestrator) persistTurns(ctx context.Context, sid, query string, resp *agent.Response) {
	if err := o.mem.AddUserQuery(ctx, sid, query, nil); err != nil {
		o.logger.Warn("failed to persist user query", "error", err)
	}
	err := o.mem.AddAgentResponse(ctx, sid, resp.Content,
		resp.Metadata.ProcessingTimeMS, resp.Confidence, resp.Metadata.ModelUsed, nil)
	if err != nil {
		o.logger.Warn("failed to persist agent response", "error", err)
	}
}

func (o *Orchestrator) enrichMemoryStats(ctx context.Context, sid string, resp *agent.Response) {
	stats, err := o.mem.GetMemoryStats(ctx, sid)
	if err != nil {
		o.logger.Warn("failed to load memory stats", "error", err)
		return
	}
	resp.Metadata.PreviousInteractions = stats.Turns
	resp.Metadata.MemoryStats = map[string]int{
		"turns":              stats.Turns,
		"user_queries":       stats.UserQueries,
		"agent_responses":    stats.AgentResponses,
		"context_keys":       stats.ContextKeys,
		"cached_analyses":    stats.CachedAnalyses,
		"summary_embeddings": stats.SummaryEmbeddings,
	}
}

// maybeSummarize writes a conversation-summary embedding every N turns. The
// summary comes from the LLM when available and otherwise from a
// deterministic concatenation of the recent turns.
func (o *Orchestrator) maybeSummarize(ctx context.Context, sid string, resp *agent.Response) {
	interval := o.cfg.Memory.SummaryInterval
	if interval <= 0 || resp.Metadata.MemoryStats == nil {
		return
	}
	turns := resp.Metadata.MemoryStats["turns"]
	if turns == 0 || turns%interval != 0 {
		return
	}

	window := time.Duration(o.cfg.Retrieval.ContextWindowHours) * time.Hour
	history, err := o.mem.GetConversationHistory(ctx, sid, time.Now().Add(-window))
	if err != nil || len(history) == 0 {
		return
	}

	summary := o.summarize(ctx, history)
	vec, err := embeddings.EmbedOne(ctx, o.embedder, summary)
	if err != nil {
		o.logger.Warn("failed to embed conversation summary", "error", err)
		return
	}

	emb := memory.SummaryEmbedding{
		SessionID:     sid,
		AgentName:     "orchestrator",
		EmbeddingType: "summary",
		SourceText:    summary,
		Embedding:     vec,
		CreatedAt:     time.Now().UTC(),
	}
	if err := o.mem.SaveEmbedding(ctx, emb); err != nil {
		o.logger.Warn("failed to save summary embedding", "error", err)
	}
}

func (o *Orchestrator) summarize(ctx context.Context, history []memory.Turn) string {
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "[%s] %s\n", t.Type, t.Content)
	}
	transcript := b.String()

	if o.chat != nil {
		result, err := o.chat.Chat(ctx,
			"Resuma a conversa a seguir em poucas frases, preservando perguntas e conclusões.",
			transcript,
			llm.ChatOptions{Temperature: o.cfg.Chat.DefaultTemperature})
		if err == nil && result != nil && result.Success && strings.TrimSpace(result.Content) != "" {
			return result.Content
		}
	}

	// Deterministic fallback: the raw transcript, bounded.
	const maxLen = 2000
	if len(transcript) > maxLen {
		transcript = transcript[:maxLen]
	}
	return transcript
}
