package vectordb

import (
	"strconv"
	"time"
)

// ChunkType categorizes the kind of dataset chunk stored in the vector DB.
type ChunkType string

const (
	ChunkDatasetOverview ChunkType = "dataset_overview"
	ChunkColumnStats     ChunkType = "column_stats"
	ChunkDataQuality     ChunkType = "data_quality"
	ChunkCSVRows         ChunkType = "csv_rows"
)

// ChunkMetadata holds structured information about a dataset chunk.
// (Source, ChunkIndex) is unique within one ingestion.
type ChunkMetadata struct {
	Source     string
	ChunkIndex int
	Type       ChunkType
	CreatedAt  time.Time
}

// Chunk is the unit of retrieval: a bounded text fragment plus its embedding.
type Chunk struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  ChunkMetadata
}

// MatchResult pairs a chunk with its cosine similarity to a query.
type MatchResult struct {
	Chunk      Chunk
	Similarity float64
}

// ChunkFilter narrows Select and Match results by metadata fields.
type ChunkFilter struct {
	Source *string
	Type   *ChunkType
}

// metadataToMap converts ChunkMetadata to a flat map[string]string for chromem.
func metadataToMap(m ChunkMetadata) map[string]string {
	return map[string]string{
		"source":      m.Source,
		"chunk_index": strconv.Itoa(m.ChunkIndex),
		"chunk_type":  string(m.Type),
		"created_at":  m.CreatedAt.Format(time.RFC3339),
	}
}

// mapToMetadata converts a flat map[string]string back to ChunkMetadata.
func mapToMetadata(m map[string]string) ChunkMetadata {
	idx, _ := strconv.Atoi(m["chunk_index"])
	createdAt, _ := time.Parse(time.RFC3339, m["created_at"])
	return ChunkMetadata{
		Source:     m["source"],
		ChunkIndex: idx,
		Type:       ChunkType(m["chunk_type"]),
		CreatedAt:  createdAt,
	}
}
