package reconstruct

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

type fixedStore struct {
	chunks []vectordb.Chunk
}

func (s *fixedStore) Insert(context.Context, vectordb.Chunk) error { return nil }

func (s *fixedStore) Match(context.Context, []float32, float64, int) ([]vectordb.MatchResult, error) {
	return nil, nil
}

func (s *fixedStore) Select(_ context.Context, filter *vectordb.ChunkFilter, _ int) ([]vectordb.Chunk, error) {
	var out []vectordb.Chunk
	for _, c := range s.chunks {
		if filter != nil && filter.Source != nil && c.Metadata.Source != *filter.Source {
			continue
		}
		if filter != nil && filter.Type != nil && c.Metadata.Type != *filter.Type {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fixedStore) DeleteSource(context.Context, string) error { return nil }
func (s *fixedStore) Persist(context.Context, string) error      { return nil }
func (s *fixedStore) Load(context.Context, string) error         { return nil }
func (s *fixedStore) Count() int                                 { return len(s.chunks) }

func chunkOf(source string, index int, typ vectordb.ChunkType, text string) vectordb.Chunk {
	return vectordb.Chunk{
		Text:     text,
		Metadata: vectordb.ChunkMetadata{Source: source, ChunkIndex: index, Type: typ},
	}
}

func TestReconstructFromRowChunks(t *testing.T) {
	store := &fixedStore{chunks: []vectordb.Chunk{
		chunkOf("fraud.csv", 0, vectordb.ChunkDatasetOverview,
			"Dataset overview for fraud.csv.\nThe dataset contains 4 rows and 3 columns.\n"),
		chunkOf("fraud.csv", 3, vectordb.ChunkCSVRows,
			"\"Time\",\"Amount\",\"Class\"\n3,30.5,1\n4,40.0,0\n"),
		chunkOf("fraud.csv", 2, vectordb.ChunkCSVRows,
			"\"Time\",\"Amount\",\"Class\"\n1,10.5,0\n2,20.0,1\npadding line without separators\n"),
	}}

	tbl, err := New(store, nil).Reconstruct(context.Background(), "fraud.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "Amount", "Class"}, tbl.Columns)
	require.Equal(t, 4, tbl.RowCount())
	// Chunks are ordered by chunk_index, so rows come back in file order.
	assert.Equal(t, []string{"1", "10.5", "0"}, tbl.Rows[0])
	assert.Equal(t, []string{"4", "40.0", "0"}, tbl.Rows[3])
}

func TestReconstructQuotedCommaCells(t *testing.T) {
	store := &fixedStore{chunks: []vectordb.Chunk{
		chunkOf("vendas.csv", 1, vectordb.ChunkCSVRows,
			"\"Cidade\",\"Amount\",\"id\"\n\"Rio de Janeiro, RJ\",10.5,1\nCampinas,20.0,2\n"),
	}}

	tbl, err := New(store, nil).Reconstruct(context.Background(), "vendas.csv")
	require.NoError(t, err)
	require.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, []string{"Rio de Janeiro, RJ", "10.5", "1"}, tbl.Rows[0])
	assert.Equal(t, []string{"Campinas", "20.0", "2"}, tbl.Rows[1])
}

func TestReconstructFallbackWithoutTypeTags(t *testing.T) {
	store := &fixedStore{chunks: []vectordb.Chunk{
		chunkOf("fraud.csv", 0, "",
			"Some descriptive text before the data.\n\"A\",\"B\"\n1,2\n3,4\n"),
	}}

	tbl, err := New(store, nil).Reconstruct(context.Background(), "fraud.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tbl.Columns)
	assert.Equal(t, 2, tbl.RowCount())
}

func TestReconstructNoHeader(t *testing.T) {
	store := &fixedStore{chunks: []vectordb.Chunk{
		chunkOf("fraud.csv", 0, vectordb.ChunkDatasetOverview, "Only prose here, nothing tabular.\n"),
	}}

	_, err := New(store, nil).Reconstruct(context.Background(), "fraud.csv")
	require.Error(t, err)
	assert.Equal(t, agent.KindReconstruction, agent.KindOf(err))
}

func TestReconstructEmptyStore(t *testing.T) {
	_, err := New(&fixedStore{}, nil).Reconstruct(context.Background(), "fraud.csv")
	require.Error(t, err)
	assert.Equal(t, agent.KindReconstruction, agent.KindOf(err))
}

func TestParseHeaderLine(t *testing.T) {
	names, ok := parseHeaderLine(`"Time","Amount","Class"`)
	require.True(t, ok)
	assert.Equal(t, []string{"Time", "Amount", "Class"}, names)

	_, ok = parseHeaderLine(`1,2,3`)
	assert.False(t, ok, "unquoted data line is not a header")

	_, ok = parseHeaderLine(`"1","2","3"`)
	assert.False(t, ok, "mostly numeric names are rejected")

	_, ok = parseHeaderLine(`"single"`)
	assert.False(t, ok, "a single column is not enough")
}

func TestNumericHelpers(t *testing.T) {
	tbl := &Table{
		Columns: []string{"id", "Amount", "Class"},
		Rows: [][]string{
			{"1", "10.5", "a"},
			{"2", "20.0", "b"},
			{"3", "", "a"},
			{"4", "40.0", "b"},
		},
	}

	assert.Equal(t, []float64{10.5, 20.0, 40.0}, tbl.NumericColumn("amount"))
	assert.Equal(t, []string{"id", "Amount"}, tbl.NumericColumnNames())
	assert.Equal(t, []string{"Amount"}, tbl.NumericColumnNames("id"))
	assert.Equal(t, []string{"Class"}, tbl.CategoricalColumnNames(10))

	cols := tbl.NumericMatrix([]string{"id", "Amount"})
	require.Len(t, cols, 2)
	assert.Equal(t, []float64{1, 2, 4}, cols[0], "rows with a missing value are dropped")

	counts := tbl.ValueCounts("Class")
	assert.Equal(t, 2, counts["a"])
	assert.Equal(t, 2, counts["b"])
}
