package vectordb

import "context"

// VectorStore defines the interface for storing and matching dataset chunks
// by embedding. At query time it is the only legitimate source of dataset
// content.
type VectorStore interface {
	// Insert adds one chunk with its precomputed embedding. Atomic per chunk.
	Insert(ctx context.Context, chunk Chunk) error

	// Match returns chunks with cosine similarity >= threshold against the
	// query embedding, ordered by similarity descending, at most limit items.
	Match(ctx context.Context, queryEmbedding []float32, threshold float64, limit int) ([]MatchResult, error)

	// Select returns chunks matching the filter, up to limit (0 = all).
	// Used for full-scan reconstruction, not semantic search.
	Select(ctx context.Context, filter *ChunkFilter, limit int) ([]Chunk, error)

	// DeleteSource removes all chunks of the given dataset source.
	DeleteSource(ctx context.Context, source string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of chunks in the store.
	Count() int
}
