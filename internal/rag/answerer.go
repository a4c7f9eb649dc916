// Package rag implements the retrieval-augmented answerer: embed the
// question, retrieve the closest dataset chunks, compose a grounded prompt
// with the recent conversation and let the LLM answer from that context only.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/embeddings"
	"github.com/datachat-ai/datachat/internal/llm"
	"github.com/datachat-ai/datachat/internal/memory"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

// groundingChunks caps how many retrieved chunks are pasted into the prompt.
const groundingChunks = 5

const systemPrompt = `Você é um assistente de análise de dados. Responda exclusivamente com base nos trechos de dados fornecidos no contexto. Não invente valores nem utilize conhecimento externo ao contexto. Se a informação pedida não estiver no contexto, diga isso claramente. Responda no mesmo idioma da pergunta do usuário.`

// chatClient is the subset of the LLM client the answerer needs.
type chatClient interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string, opts llm.ChatOptions) (*llm.ChatResult, error)
}

// Answerer produces grounded answers for queries without a dedicated
// statistical handler.
type Answerer struct {
	store    vectordb.VectorStore
	embedder embeddings.Embedder
	chat     chatClient
	mem      *memory.Manager
	cfg      *config.Config
	logger   *slog.Logger
}

func NewAnswerer(store vectordb.VectorStore, embedder embeddings.Embedder, chat chatClient, mem *memory.Manager, cfg *config.Config, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{store: store, embedder: embedder, chat: chat, mem: mem, cfg: cfg, logger: logger}
}

// Answer runs one retrieval-augmented turn. The user query and the agent
// response are both persisted; confidence is the mean similarity of the
// retrieved chunks. An embedding failure fails the request, a chat failure
// falls back to a deterministic chunk echo.
func (a *Answerer) Answer(ctx context.Context, sessionID, query string) (*agent.Response, error) {
	start := time.Now()

	transcript, previous := a.conversationTranscript(ctx, sessionID)

	if err := a.mem.AddUserQuery(ctx, sessionID, query, nil); err != nil {
		a.logger.Warn("failed to persist user query", "error", err)
	}

	queryVec, err := embeddings.EmbedOne(ctx, a.embedder, query)
	if err != nil {
		return nil, agent.Wrap(agent.KindProvider, "embed query", err)
	}

	matches, err := a.store.Match(ctx, queryVec,
		a.cfg.Retrieval.SimilarityThreshold, a.cfg.Retrieval.TopK)
	if err != nil {
		return nil, agent.Wrap(agent.KindInternal, "match chunks", err)
	}

	if len(matches) == 0 {
		resp := a.noRelevantData(sessionID, previous, start)
		a.persistResponse(ctx, sessionID, resp, "")
		return resp, nil
	}

	used := matches
	if len(used) > groundingChunks {
		used = used[:groundingChunks]
	}

	avg, top := similarityStats(matches)
	grounding := a.groundingContext(used)
	prompt := buildUserPrompt(query, grounding, transcript)

	var (
		content string
		model   string
	)
	result, chatErr := a.chat.Chat(ctx, systemPrompt, prompt, llm.ChatOptions{
		Temperature: a.cfg.Chat.ConversationTemperature,
	})
	if chatErr != nil || result == nil || !result.Success {
		a.logger.Warn("all chat providers failed, echoing retrieved chunks", "error", chatErr)
		content = echoChunks(used)
	} else {
		content = result.Content
		model = result.Model
	}

	resp := &agent.Response{
		Content:    content,
		Success:    true,
		Confidence: avg,
		Metadata: agent.Metadata{
			SessionID:            sessionID,
			AgentsUsed:           []string{"rag_answerer"},
			ChunksFound:          len(matches),
			ChunksUsed:           len(used),
			AvgSimilarity:        avg,
			TopSimilarity:        top,
			ProcessingTimeMS:     time.Since(start).Milliseconds(),
			MemoryEnabled:        true,
			PreviousInteractions: previous,
			ModelUsed:            model,
		},
	}
	a.persistResponse(ctx, sessionID, resp, model)
	return resp, nil
}

// conversationTranscript renders the session's recent turns, newest last, as
// "[type] content" lines. Window and turn limit come from configuration.
func (a *Answerer) conversationTranscript(ctx context.Context, sessionID string) (string, int) {
	window := time.Duration(a.cfg.Retrieval.ContextWindowHours) * time.Hour
	turns, err := a.mem.GetConversationHistory(ctx, sessionID, time.Now().Add(-window))
	if err != nil {
		a.logger.Warn("failed to load conversation history", "error", err)
		return "", 0
	}

	limit := a.cfg.Retrieval.ContextTurnLimit
	recent := turns
	if limit > 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}

	var b strings.Builder
	for _, t := range recent {
		fmt.Fprintf(&b, "[%s] %s\n", t.Type, t.Content)
	}
	return b.String(), len(turns)
}

// groundingContext joins the selected chunk texts with blank lines and trims
// the result to the configured token budget.
func (a *Answerer) groundingContext(matches []vectordb.MatchResult) string {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = strings.TrimSpace(m.Chunk.Text)
	}
	joined := strings.Join(texts, "\n\n")
	return truncateToTokens(joined, a.cfg.Retrieval.MaxContextTokens)
}

func buildUserPrompt(query, grounding, transcript string) string {
	var b strings.Builder
	b.WriteString("## Contexto dos dados\n\n")
	b.WriteString(grounding)
	b.WriteString("\n\n")
	if transcript != "" {
		b.WriteString("## Conversa recente\n\n")
		b.WriteString(transcript)
		b.WriteString("\n")
	}
	b.WriteString("## Pergunta\n\n")
	b.WriteString(query)
	return b.String()
}

// echoChunks is the deterministic fallback when every chat provider fails.
func echoChunks(matches []vectordb.MatchResult) string {
	var b strings.Builder
	b.WriteString("Não foi possível consultar o modelo de linguagem. Trechos mais relevantes encontrados:\n\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "(similaridade %.2f)\n%s\n\n", m.Similarity, strings.TrimSpace(m.Chunk.Text))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (a *Answerer) noRelevantData(sessionID string, previous int, start time.Time) *agent.Response {
	return &agent.Response{
		Content: "Não encontrei dados relevantes para responder a esta pergunta no conjunto indexado.",
		Success: true,
		Metadata: agent.Metadata{
			SessionID:            sessionID,
			AgentsUsed:           []string{"rag_answerer"},
			ProcessingTimeMS:     time.Since(start).Milliseconds(),
			MemoryEnabled:        true,
			PreviousInteractions: previous,
		},
	}
}

func (a *Answerer) persistResponse(ctx context.Context, sessionID string, resp *agent.Response, model string) {
	err := a.mem.AddAgentResponse(ctx, sessionID, resp.Content,
		resp.Metadata.ProcessingTimeMS, resp.Confidence, model, nil)
	if err != nil {
		a.logger.Warn("failed to persist agent response", "error", err)
	}
}

func similarityStats(matches []vectordb.MatchResult) (avg, top float64) {
	for _, m := range matches {
		avg += m.Similarity
		if m.Similarity > top {
			top = m.Similarity
		}
	}
	return avg / float64(len(matches)), top
}
