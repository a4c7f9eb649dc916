package memory

import "time"

// MessageType distinguishes the two kinds of conversation turns.
type MessageType string

const (
	MessageUserQuery     MessageType = "user_query"
	MessageAgentResponse MessageType = "agent_response"
)

// Session ties together successive queries from one user.
type Session struct {
	ID        int64
	SessionID string // stable external identifier
	UserID    string
	CreatedAt time.Time
	Metadata  map[string]any
}

// Turn is one user_query or agent_response entry within a session.
type Turn struct {
	ID               int64
	SessionID        string
	Type             MessageType
	Content          string
	Timestamp        time.Time
	ProcessingTimeMS int64
	Confidence       float64
	ModelUsed        string
	Metadata         map[string]any
}

// SummaryEmbedding persists an embedded conversation summary for
// cross-session semantic recall.
type SummaryEmbedding struct {
	SessionID     string
	AgentName     string
	EmbeddingType string
	SourceText    string
	Embedding     []float32
	CreatedAt     time.Time
	Metadata      map[string]any
}

// Stats aggregates per-session memory counters.
type Stats struct {
	Turns             int `json:"turns"`
	UserQueries       int `json:"user_queries"`
	AgentResponses    int `json:"agent_responses"`
	ContextKeys       int `json:"context_keys"`
	CachedAnalyses    int `json:"cached_analyses"`
	SummaryEmbeddings int `json:"summary_embeddings"`
}
