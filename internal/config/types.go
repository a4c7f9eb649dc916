package config

// ProviderType identifies an LLM or embedding provider backend.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// CanonicalColumn maps a semantic column role onto a physical CSV column by
// case-insensitive alias matching.
type CanonicalColumn struct {
	Name     string   `yaml:"name" koanf:"name"`
	Aliases  []string `yaml:"aliases" koanf:"aliases"`
	Numeric  bool     `yaml:"numeric" koanf:"numeric"`
	Required bool     `yaml:"required" koanf:"required"`
}

// ProviderConfig names one chat backend in the fallback chain.
type ProviderConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
}

// IngestionConfig controls the CSV streaming and chunking path.
type IngestionConfig struct {
	ChunkSize         int               `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int               `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	ChunkTokenMin     int               `yaml:"chunk_token_min" koanf:"chunk_token_min"`
	ChunkTokenTarget  int               `yaml:"chunk_token_target" koanf:"chunk_token_target"`
	ChunkTokenMax     int               `yaml:"chunk_token_max" koanf:"chunk_token_max"`
	ChunkColumnSample int               `yaml:"chunk_column_sample" koanf:"chunk_column_sample"`
	RowsPerTextChunk  int               `yaml:"rows_per_text_chunk" koanf:"rows_per_text_chunk"`
	CreateMissingID   bool              `yaml:"create_missing_id" koanf:"create_missing_id"`
	IDColumn          string            `yaml:"id_column" koanf:"id_column"`
	CanonicalColumns  []CanonicalColumn `yaml:"canonical_columns" koanf:"canonical_columns"`
}

// RetrievalConfig controls vector search and prompt assembly.
type RetrievalConfig struct {
	TopK                int     `yaml:"top_k" koanf:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" koanf:"similarity_threshold"`
	ContextTurnLimit    int     `yaml:"prompt_context_turn_limit" koanf:"prompt_context_turn_limit"`
	ContextWindowHours  int     `yaml:"conversation_context_window_hours" koanf:"conversation_context_window_hours"`
	MaxContextTokens    int     `yaml:"max_context_tokens" koanf:"max_context_tokens"`
}

// MemoryConfig controls the session store behavior.
type MemoryConfig struct {
	CacheExpiryHours  int   `yaml:"cache_default_expiry_hours" koanf:"cache_default_expiry_hours"`
	CacheMinLatencyMS int64 `yaml:"cache_min_latency_ms" koanf:"cache_min_latency_ms"`
	SummaryInterval   int   `yaml:"summary_interval" koanf:"summary_interval"`
}

// ChatConfig controls LLM completion parameters.
type ChatConfig struct {
	Providers               []ProviderConfig `yaml:"providers" koanf:"providers"`
	DefaultTemperature      float64          `yaml:"default_temperature" koanf:"default_temperature"`
	ConversationTemperature float64          `yaml:"conversation_temperature" koanf:"conversation_temperature"`
	DefaultMaxTokens        int              `yaml:"default_max_tokens" koanf:"default_max_tokens"`
	RequestsPerMinute       int              `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	TimeoutSeconds          int              `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// EmbeddingConfig controls the embedding provider.
type EmbeddingConfig struct {
	Provider  ProviderType `yaml:"provider" koanf:"provider"`
	Model     string       `yaml:"model" koanf:"model"`
	Dimension int          `yaml:"dimension" koanf:"dimension"`
}

// ClusteringConfig controls the K-Means handler.
type ClusteringConfig struct {
	DefaultK int `yaml:"default_k" koanf:"default_k"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Config is the top-level datachat configuration, corresponding to .datachat.yml.
type Config struct {
	DataDir    string           `yaml:"data_dir" koanf:"data_dir"`
	OutputDir  string           `yaml:"output_dir" koanf:"output_dir"`
	Dataset    string           `yaml:"dataset" koanf:"dataset"`
	Ingestion  IngestionConfig  `yaml:"ingestion" koanf:"ingestion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" koanf:"retrieval"`
	Memory     MemoryConfig     `yaml:"memory" koanf:"memory"`
	Chat       ChatConfig       `yaml:"chat" koanf:"chat"`
	Embedding  EmbeddingConfig  `yaml:"embedding" koanf:"embedding"`
	Clustering ClusteringConfig `yaml:"clustering" koanf:"clustering"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
}
