package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/datachat-ai/datachat/internal/db"
)

// Store persists sessions, turns, context blobs, cached analyses and summary
// embeddings in SQLite. Turns and summary embeddings are append-only;
// sessions and context blobs upsert; cache entries upsert with expiry-on-read.
type Store struct {
	db *db.DB
}

// NewStore creates a session store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// GetOrCreateSession returns the session with the given external id,
// creating it if absent. Idempotent on the external id.
func (s *Store) GetOrCreateSession(ctx context.Context, sessionID, userID string, metadata map[string]any) (*Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	meta, err := marshalMeta(metadata)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, created_at, metadata) VALUES (?, ?, ?, ?)`,
		sessionID, userID, now, meta,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Session{ID: id, SessionID: sessionID, UserID: userID, CreatedAt: now, Metadata: metadata}, nil
}

// GetSession returns the session with the given external id, or nil.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	var userID sql.NullString
	var meta string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, created_at, metadata FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&sess.ID, &sess.SessionID, &userID, &sess.CreatedAt, &meta)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	sess.UserID = userID.String
	sess.Metadata = unmarshalMeta(meta)
	return &sess, nil
}

// AppendTurn appends one conversation turn. The timestamp is server-assigned.
func (s *Store) AppendTurn(ctx context.Context, turn Turn) (*Turn, error) {
	sess, err := s.GetSession(ctx, turn.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %q not found", turn.SessionID)
	}

	meta, err := marshalMeta(turn.Metadata)
	if err != nil {
		return nil, err
	}
	turn.Timestamp = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, type, content, timestamp, processing_time_ms, confidence, model_used, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, turn.Type, turn.Content, turn.Timestamp,
		nullInt(turn.ProcessingTimeMS), nullFloat(turn.Confidence), nullStr(turn.ModelUsed), meta,
	)
	if err != nil {
		return nil, fmt.Errorf("appending turn: %w", err)
	}
	turn.ID, _ = res.LastInsertId()
	return &turn, nil
}

// GetTurns returns the session's turns in ascending timestamp order.
// A zero since returns the full history.
func (s *Store) GetTurns(ctx context.Context, sessionID string, since time.Time) ([]Turn, error) {
	query := `SELECT c.id, c.type, c.content, c.timestamp,
	                 COALESCE(c.processing_time_ms, 0), COALESCE(c.confidence, 0),
	                 COALESCE(c.model_used, ''), c.metadata
	          FROM conversations c
	          JOIN sessions s ON s.id = c.session_id
	          WHERE s.session_id = ?`
	args := []any{sessionID}
	if !since.IsZero() {
		query += " AND c.timestamp >= ?"
		args = append(args, since.UTC())
	}
	query += " ORDER BY c.timestamp ASC, c.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		t := Turn{SessionID: sessionID}
		var meta string
		if err := rows.Scan(&t.ID, &t.Type, &t.Content, &t.Timestamp,
			&t.ProcessingTimeMS, &t.Confidence, &t.ModelUsed, &meta); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Metadata = unmarshalMeta(meta)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// UpsertContext writes a context blob. Last write wins per (session, key).
func (s *Store) UpsertContext(ctx context.Context, sessionID, key string, value any) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %q not found", sessionID)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling context value: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO context (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		sess.ID, key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting context: %w", err)
	}
	return nil
}

// GetContext reads a context blob into out. Returns false when absent.
func (s *Store) GetContext(ctx context.Context, sessionID, key string, out any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT c.value FROM context c JOIN sessions s ON s.id = c.session_id
		 WHERE s.session_id = ? AND c.key = ?`,
		sessionID, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting context: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("unmarshalling context value: %w", err)
	}
	return true, nil
}

// PutCache upserts an analysis cache entry expiring after the given duration.
func (s *Store) PutCache(ctx context.Context, sessionID, key string, value any, ttl time.Duration) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %q not found", sessionID)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling cache value: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_cache (session_id, key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		sess.ID, key, string(data), time.Now().UTC().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

// GetCache reads a cache entry into out. Entries with expires_at <= now are
// treated as absent.
func (s *Store) GetCache(ctx context.Context, sessionID, key string, out any) (bool, error) {
	var raw string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT c.value, c.expires_at FROM analysis_cache c JOIN sessions s ON s.id = c.session_id
		 WHERE s.session_id = ? AND c.key = ?`,
		sessionID, key,
	).Scan(&raw, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting cache entry: %w", err)
	}
	if !expiresAt.After(time.Now().UTC()) {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("unmarshalling cache value: %w", err)
	}
	return true, nil
}

// AppendEmbedding persists a summary embedding. Append-only.
func (s *Store) AppendEmbedding(ctx context.Context, emb SummaryEmbedding) error {
	sess, err := s.GetSession(ctx, emb.SessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %q not found", emb.SessionID)
	}

	vec, err := json.Marshal(emb.Embedding)
	if err != nil {
		return fmt.Errorf("marshalling embedding: %w", err)
	}
	meta, err := marshalMeta(emb.Metadata)
	if err != nil {
		return err
	}
	if emb.EmbeddingType == "" {
		emb.EmbeddingType = "summary"
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memory_embeddings (session_id, agent_name, embedding_type, source_text, embedding, created_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, emb.AgentName, emb.EmbeddingType, emb.SourceText, string(vec), time.Now().UTC(), meta,
	)
	if err != nil {
		return fmt.Errorf("appending summary embedding: %w", err)
	}
	return nil
}

// GetStats returns the per-session memory counters.
func (s *Store) GetStats(ctx context.Context, sessionID string) (*Stats, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}

	var st Stats
	err = s.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM conversations WHERE session_id = ?),
		  (SELECT COUNT(*) FROM conversations WHERE session_id = ? AND type = 'user_query'),
		  (SELECT COUNT(*) FROM conversations WHERE session_id = ? AND type = 'agent_response'),
		  (SELECT COUNT(*) FROM context WHERE session_id = ?),
		  (SELECT COUNT(*) FROM analysis_cache WHERE session_id = ? AND expires_at > ?),
		  (SELECT COUNT(*) FROM memory_embeddings WHERE session_id = ?)`,
		sess.ID, sess.ID, sess.ID, sess.ID, sess.ID, time.Now().UTC(), sess.ID,
	).Scan(&st.Turns, &st.UserQueries, &st.AgentResponses, &st.ContextKeys, &st.CachedAnalyses, &st.SummaryEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	return &st, nil
}

func marshalMeta(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMeta(s string) map[string]any {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
