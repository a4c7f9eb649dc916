package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/datachat-ai/datachat/internal/config"
)

// Manager is the façade over the session store: session lifecycle, turn
// appends, context blobs, the analysis cache and summary embeddings.
type Manager struct {
	store *Store
	cfg   config.MemoryConfig
}

// NewManager creates a memory manager.
func NewManager(store *Store, cfg config.MemoryConfig) *Manager {
	return &Manager{store: store, cfg: cfg}
}

// InitializeSession returns the session identified by sessionID, creating it
// when absent. An empty sessionID mints a new UUID. Idempotent on the
// external id.
func (m *Manager) InitializeSession(ctx context.Context, sessionID, userID string, metadata map[string]any) (string, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	sess, err := m.store.GetOrCreateSession(ctx, sessionID, userID, metadata)
	if err != nil {
		return "", err
	}
	return sess.SessionID, nil
}

// AddUserQuery appends a user_query turn.
func (m *Manager) AddUserQuery(ctx context.Context, sessionID, content string, metadata map[string]any) error {
	_, err := m.store.AppendTurn(ctx, Turn{
		SessionID: sessionID,
		Type:      MessageUserQuery,
		Content:   content,
		Metadata:  metadata,
	})
	return err
}

// AddAgentResponse appends an agent_response turn.
func (m *Manager) AddAgentResponse(ctx context.Context, sessionID, content string, processingTimeMS int64, confidence float64, model string, metadata map[string]any) error {
	_, err := m.store.AppendTurn(ctx, Turn{
		SessionID:        sessionID,
		Type:             MessageAgentResponse,
		Content:          content,
		ProcessingTimeMS: processingTimeMS,
		Confidence:       confidence,
		ModelUsed:        model,
		Metadata:         metadata,
	})
	return err
}

// GetConversationHistory returns turns in ascending timestamp order; since
// is a lower bound (zero = all).
func (m *Manager) GetConversationHistory(ctx context.Context, sessionID string, since time.Time) ([]Turn, error) {
	return m.store.GetTurns(ctx, sessionID, since)
}

// StoreDataContext upserts a context blob under the given key.
func (m *Manager) StoreDataContext(ctx context.Context, sessionID string, data any, key string) error {
	return m.store.UpsertContext(ctx, sessionID, key, data)
}

// GetDataContext reads a context blob into out; false when absent.
func (m *Manager) GetDataContext(ctx context.Context, sessionID, key string, out any) (bool, error) {
	return m.store.GetContext(ctx, sessionID, key, out)
}

// CacheAnalysisResult stores a computed analysis under key for expiryHours
// (0 falls back to the configured default).
func (m *Manager) CacheAnalysisResult(ctx context.Context, sessionID, key string, value any, expiryHours int) error {
	if expiryHours <= 0 {
		expiryHours = m.cfg.CacheExpiryHours
	}
	return m.store.PutCache(ctx, sessionID, key, value, time.Duration(expiryHours)*time.Hour)
}

// GetCachedAnalysis reads a cached analysis into out, honoring expiry.
func (m *Manager) GetCachedAnalysis(ctx context.Context, sessionID, key string, out any) (bool, error) {
	return m.store.GetCache(ctx, sessionID, key, out)
}

// SaveEmbedding persists a conversation-summary embedding.
func (m *Manager) SaveEmbedding(ctx context.Context, emb SummaryEmbedding) error {
	return m.store.AppendEmbedding(ctx, emb)
}

// GetMemoryStats returns aggregated counters for the session.
func (m *Manager) GetMemoryStats(ctx context.Context, sessionID string) (*Stats, error) {
	return m.store.GetStats(ctx, sessionID)
}

// AnalysisKey derives the deterministic cache key for a query: a stable hash
// over the lower-cased trimmed query plus the whitelisted context fields
// (dataset identifier, retrieval limit, current index size).
func AnalysisKey(query, dataset string, retrievalLimit, indexSize int) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	payload := fmt.Sprintf("%s|%s|%d|%d", normalized, dataset, retrievalLimit, indexSize)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ShouldCache decides whether a result is worth caching: never errors, and
// only results that were slow to produce or carry a structured statistics
// payload.
func (m *Manager) ShouldCache(success bool, processingTimeMS int64, hasStatistics bool) bool {
	if !success {
		return false
	}
	return processingTimeMS > m.cfg.CacheMinLatencyMS || hasStatistics
}
