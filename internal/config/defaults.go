package config

// DefaultCanonicalColumns covers the column roles the ingestor knows how to
// resolve out of the box. Users extend this list in .datachat.yml.
var DefaultCanonicalColumns = []CanonicalColumn{
	{Name: "id", Aliases: []string{"id", "index", "row_id"}, Numeric: true},
	{Name: "time", Aliases: []string{"time", "timestamp", "date", "data", "datetime"}, Numeric: true},
	{Name: "amount", Aliases: []string{"amount", "value", "valor", "montante"}, Numeric: true},
	{Name: "class", Aliases: []string{"class", "label", "classe", "categoria", "target"}},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:   ".datachat",
		OutputDir: ".datachat/charts",
		Ingestion: IngestionConfig{
			ChunkSize:         1000,
			ChunkOverlap:      100,
			ChunkTokenMin:     80,
			ChunkTokenTarget:  200,
			ChunkTokenMax:     400,
			ChunkColumnSample: 15,
			RowsPerTextChunk:  20,
			CreateMissingID:   true,
			IDColumn:          "id",
			CanonicalColumns:  DefaultCanonicalColumns,
		},
		Retrieval: RetrievalConfig{
			TopK:                10,
			SimilarityThreshold: 0.5,
			ContextTurnLimit:    3,
			ContextWindowHours:  24,
			MaxContextTokens:    3000,
		},
		Memory: MemoryConfig{
			CacheExpiryHours:  24,
			CacheMinLatencyMS: 500,
			SummaryInterval:   5,
		},
		Chat: ChatConfig{
			Providers: []ProviderConfig{
				{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
				{Provider: ProviderAnthropic, Model: "claude-haiku-4-5-20251001"},
				{Provider: ProviderOllama, Model: "llama3"},
			},
			DefaultTemperature:      0.2,
			ConversationTemperature: 0.3,
			DefaultMaxTokens:        2048,
			RequestsPerMinute:       60,
			TimeoutSeconds:          60,
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderOpenAI,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Clustering: ClusteringConfig{DefaultK: 3},
		Server:     ServerConfig{Port: 8844},
	}
}
