package vectordb

import (
	"context"
	"fmt"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"github.com/datachat-ai/datachat/internal/embeddings"
)

const collectionName = "dataset_chunks"

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore. The embedder is only
// consulted for text queries issued without a precomputed embedding
// (full-scan selects); inserts always carry their own vectors.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) Insert(ctx context.Context, chunk Chunk) error {
	if chunk.ID == "" {
		chunk.ID = fmt.Sprintf("%s:%04d", chunk.Metadata.Source, chunk.Metadata.ChunkIndex)
	}
	return s.collection.AddDocuments(ctx, []chromem.Document{{
		ID:        chunk.ID,
		Content:   chunk.Text,
		Embedding: chunk.Embedding,
		Metadata:  metadataToMap(chunk.Metadata),
	}}, 1)
}

func (s *ChromemStore) Match(ctx context.Context, queryEmbedding []float32, threshold float64, limit int) ([]MatchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	// chromem returns results sorted by similarity descending; clamp negative
	// cosine values so callers always see similarity in [0,1].
	matches := make([]MatchResult, 0, len(results))
	for _, r := range results {
		sim := float64(r.Similarity)
		if sim < 0 {
			sim = 0
		}
		if sim < threshold {
			continue
		}
		matches = append(matches, MatchResult{
			Chunk: Chunk{
				ID:       r.ID,
				Text:     r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: sim,
		})
	}
	return matches, nil
}

func (s *ChromemStore) Select(ctx context.Context, filter *ChunkFilter, limit int) ([]Chunk, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	// chromem has no scan primitive; query with the filter text and the
	// collection size as limit to retrieve every matching chunk.
	where := buildWhereClause(filter)
	queryText := "dataset"
	if filter != nil && filter.Source != nil {
		queryText = *filter.Source
	}

	results, err := s.collection.Query(ctx, queryText, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem select: %w", err)
	}

	chunks := make([]Chunk, len(results))
	for i, r := range results {
		chunks[i] = Chunk{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: mapToMetadata(r.Metadata),
		}
	}
	return chunks, nil
}

func (s *ChromemStore) DeleteSource(ctx context.Context, source string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	return s.collection.Delete(ctx, map[string]string{"source": source}, nil)
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(filepath.Join(dir, "chunks.gob.gz"), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, "chunks.gob.gz"), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// buildWhereClause converts a ChunkFilter to a chromem where clause.
func buildWhereClause(filter *ChunkFilter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.Source != nil {
		where["source"] = *filter.Source
	}
	if filter.Type != nil {
		where["chunk_type"] = string(*filter.Type)
	}

	if len(where) == 0 {
		return nil
	}
	return where
}
