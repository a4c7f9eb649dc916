package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

type stubEmbedder struct {
	dim      int
	calls    int
	failNext int // fail this many calls before succeeding
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.failNext > 0 {
		e.failNext--
		return nil, errors.New("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, e.dim)
		for j := range vec {
			vec[j] = float32(len(texts[i])%7) / 7
		}
		out[i] = vec
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return e.dim }
func (e *stubEmbedder) Name() string    { return "stub" }

type recordingStore struct {
	chunks  []vectordb.Chunk
	deleted []string
}

func (s *recordingStore) Insert(_ context.Context, c vectordb.Chunk) error {
	s.chunks = append(s.chunks, c)
	return nil
}

func (s *recordingStore) Match(context.Context, []float32, float64, int) ([]vectordb.MatchResult, error) {
	return nil, nil
}

func (s *recordingStore) Select(context.Context, *vectordb.ChunkFilter, int) ([]vectordb.Chunk, error) {
	return s.chunks, nil
}

func (s *recordingStore) DeleteSource(_ context.Context, source string) error {
	s.deleted = append(s.deleted, source)
	return nil
}

func (s *recordingStore) Persist(context.Context, string) error { return nil }
func (s *recordingStore) Load(context.Context, string) error    { return nil }
func (s *recordingStore) Count() int                            { return len(s.chunks) }

func writeCSV(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func newTestIngestor(cfg config.IngestionConfig, store *recordingStore, emb *stubEmbedder) *Ingestor {
	return NewIngestor(cfg, emb, store, nil, nil)
}

func TestIngestHappyPath(t *testing.T) {
	cfg := testIngestionConfig()
	lines := []string{"Time,Amount,Class"}
	for i := 1; i <= 25; i++ {
		lines = append(lines, strconv.Itoa(i)+","+strconv.Itoa(i*10)+".5,0")
	}
	path := writeCSV(t, lines)

	store := &recordingStore{}
	ing := newTestIngestor(cfg, store, &stubEmbedder{dim: 8})

	rep, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "data.csv", rep.Source)
	assert.Equal(t, 25, rep.RowsBefore)
	assert.Equal(t, 25, rep.RowsAfter)
	assert.Equal(t, 3, rep.ColumnsBefore)
	assert.Equal(t, 4, rep.ColumnsAfter, "synthetic id column appended")
	assert.Equal(t, []string{"data.csv"}, store.deleted, "previous chunks are replaced")
	assert.NotEmpty(t, store.chunks)
	assert.Zero(t, rep.EmbeddingErrors)

	base := 0
	for _, blk := range rep.Blocks {
		base += blk.BaseRows
	}
	assert.Equal(t, rep.RowsBefore, base, "base rows across blocks must sum to the row count")

	for i, c := range store.chunks {
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, "data.csv", c.Metadata.Source)
		assert.Len(t, c.Embedding, 8)
	}
}

func TestIngestSyntheticIDIsContiguous(t *testing.T) {
	cfg := testIngestionConfig()
	lines := []string{"Time,Amount,Class"}
	for i := 1; i <= 12; i++ {
		lines = append(lines, strconv.Itoa(i)+",5.0,1")
	}
	path := writeCSV(t, lines)

	store := &recordingStore{}
	ing := newTestIngestor(cfg, store, &stubEmbedder{dim: 4})
	rep, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	// The synthesized id lives in the csv_rows chunks: last cell of each row.
	var ids []int
	for _, c := range store.chunks {
		if c.Metadata.Type != vectordb.ChunkCSVRows {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(c.Text, "\n"), "\n")[1:] {
			if strings.Count(line, ",") != 3 {
				continue
			}
			cells := strings.Split(line, ",")
			id, err := strconv.Atoi(cells[len(cells)-1])
			require.NoError(t, err)
			ids = append(ids, id)
		}
	}
	require.Len(t, ids, rep.RowsAfter)
	for i, id := range ids {
		assert.Equal(t, i+1, id, "ids must form the contiguous range 1..M")
	}
}

func TestIngestDropsDuplicatesAndNulls(t *testing.T) {
	cfg := testIngestionConfig()
	cfg.CanonicalColumns = []config.CanonicalColumn{
		{Name: "id", Aliases: []string{"id"}, Numeric: true},
		{Name: "time", Aliases: []string{"time"}, Numeric: true},
		{Name: "amount", Aliases: []string{"amount"}, Numeric: true, Required: true},
		{Name: "class", Aliases: []string{"class"}},
	}
	lines := []string{
		"Time,Amount,Class",
		"1,10.0,0",
		"1,10.0,0", // exact duplicate
		"2,,1",     // null in required amount
		"3,30.0,1",
	}
	path := writeCSV(t, lines)

	store := &recordingStore{}
	ing := newTestIngestor(cfg, store, &stubEmbedder{dim: 4})
	rep, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 4, rep.RowsBefore)
	assert.Equal(t, 2, rep.RowsAfter)

	dups, nulls := 0, 0
	for _, blk := range rep.Blocks {
		dups += blk.DroppedDuplicates
		nulls += blk.DroppedNulls
	}
	assert.Equal(t, 1, dups)
	assert.Equal(t, 1, nulls)
}

func TestIngestCommaDecimalCoercion(t *testing.T) {
	cfg := testIngestionConfig()
	lines := []string{
		"Time,Amount,Class",
		`1,"10,5",0`,
		"2,not-a-number,1",
	}
	path := writeCSV(t, lines)

	store := &recordingStore{}
	ing := newTestIngestor(cfg, store, &stubEmbedder{dim: 4})
	_, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	var rowsText string
	for _, c := range store.chunks {
		if c.Metadata.Type == vectordb.ChunkCSVRows {
			rowsText += c.Text
		}
	}
	assert.Contains(t, rowsText, "10.5", "comma decimals must be normalized")
	assert.NotContains(t, rowsText, "not-a-number", "non-parseable numerics become nulls")
}

func TestIngestMissingFile(t *testing.T) {
	cfg := testIngestionConfig()
	ing := newTestIngestor(cfg, &recordingStore{}, &stubEmbedder{dim: 4})

	_, err := ing.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Equal(t, agent.KindNotFound, agent.KindOf(err))
}

func TestIngestInvalidOverlap(t *testing.T) {
	cfg := testIngestionConfig()
	cfg.ChunkSize = 5
	cfg.ChunkOverlap = 5
	ing := newTestIngestor(cfg, &recordingStore{}, &stubEmbedder{dim: 4})

	_, err := ing.Ingest(context.Background(), "whatever.csv")
	require.Error(t, err)
	assert.Equal(t, agent.KindConfig, agent.KindOf(err))
}

func TestIngestOverlapJustUnderSizeAccepted(t *testing.T) {
	cfg := testIngestionConfig()
	cfg.ChunkSize = 5
	cfg.ChunkOverlap = 4
	lines := []string{"Time,Amount,Class"}
	for i := 1; i <= 7; i++ {
		lines = append(lines, strconv.Itoa(i)+",1.0,0")
	}
	path := writeCSV(t, lines)

	store := &recordingStore{}
	ing := newTestIngestor(cfg, store, &stubEmbedder{dim: 4})
	rep, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 7, rep.RowsBefore)
	assert.Equal(t, 7, rep.RowsAfter)
}

func TestIngestRequiredColumnMissing(t *testing.T) {
	cfg := testIngestionConfig()
	cfg.CanonicalColumns = []config.CanonicalColumn{
		{Name: "amount", Aliases: []string{"amount"}, Numeric: true, Required: true},
	}
	path := writeCSV(t, []string{"Time,Class", "1,0"})

	ing := newTestIngestor(cfg, &recordingStore{}, &stubEmbedder{dim: 4})
	_, err := ing.Ingest(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, agent.KindConfig, agent.KindOf(err))
}

func TestIngestSchemaDriftAcrossBlocks(t *testing.T) {
	cfg := testIngestionConfig()
	r, err := resolveSchema([]string{"Time", "Amount", "Class"}, cfg)
	require.NoError(t, err)

	err = r.validate([]string{"Amount", "Time", "Class"}, cfg)
	require.Error(t, err)
	assert.Equal(t, agent.KindSchemaDrift, agent.KindOf(err))
}

func TestIngestEmbeddingFailureSkipsChunk(t *testing.T) {
	cfg := testIngestionConfig()
	lines := []string{"Time,Amount,Class", "1,10.0,0", "2,20.0,1"}
	path := writeCSV(t, lines)

	store := &recordingStore{}
	emb := &stubEmbedder{dim: 4, failNext: 1000}
	ing := newTestIngestor(cfg, store, emb)
	ing.retryBudget = time.Millisecond

	rep, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err, "ingestion continues past per-chunk embedding failures")
	assert.Greater(t, rep.EmbeddingErrors, 0)
	assert.Equal(t, len(rep.ChunkIDs), len(store.chunks))
}
