package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/embeddings"
	"github.com/datachat-ai/datachat/internal/progress"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

// Ingestor streams a CSV into cleaned row blocks, generates text chunks and
// writes their embeddings into the vector store.
type Ingestor struct {
	cfg         config.IngestionConfig
	embedder    embeddings.Embedder
	store       vectordb.VectorStore
	reporter    progress.Reporter
	logger      *slog.Logger
	retryBudget time.Duration
}

func NewIngestor(cfg config.IngestionConfig, embedder embeddings.Embedder, store vectordb.VectorStore, reporter progress.Reporter, logger *slog.Logger) *Ingestor {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		cfg:         cfg,
		embedder:    embedder,
		store:       store,
		reporter:    reporter,
		logger:      logger,
		retryBudget: 15 * time.Second,
	}
}

// rowBlock is one streamed portion of the file: its header plus the rows
// read fresh (the overlap buffer is prepended by the caller).
type rowBlock struct {
	header []string
	rows   [][]string
}

// Ingest reads the CSV at path, cleans it block by block and replaces the
// dataset's chunks in the vector store. The dataset source name is the file's
// base name.
func (ing *Ingestor) Ingest(ctx context.Context, path string) (*Report, error) {
	if ing.cfg.ChunkOverlap >= ing.cfg.ChunkSize {
		return nil, agent.Errorf(agent.KindConfig,
			"chunk_overlap (%d) must be smaller than chunk_size (%d)", ing.cfg.ChunkOverlap, ing.cfg.ChunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, agent.Errorf(agent.KindNotFound, "csv file %s does not exist", path)
		}
		return nil, agent.Wrap(agent.KindInternal, "open csv", err)
	}
	defer f.Close()

	source := filepath.Base(path)
	blocks, header, err := readBlocks(f, ing.cfg.ChunkSize-ing.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	tbl, report, err := ing.processBlocks(source, header, blocks)
	if err != nil {
		return nil, err
	}

	if err := ing.emitChunks(ctx, source, tbl, report); err != nil {
		return nil, err
	}
	return report, nil
}

// readBlocks consumes the CSV reader into blocks of blockSize fresh rows.
// Ragged rows are tolerated; the header line defines the column count.
func readBlocks(r io.Reader, blockSize int) ([]rowBlock, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, agent.Errorf(agent.KindConfig, "csv file is empty")
	}
	if err != nil {
		return nil, nil, agent.Wrap(agent.KindInternal, "read csv header", err)
	}

	var blocks []rowBlock
	current := rowBlock{header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, agent.Wrap(agent.KindInternal, "read csv row", err)
		}
		current.rows = append(current.rows, row)
		if len(current.rows) == blockSize {
			blocks = append(blocks, current)
			current = rowBlock{header: header}
		}
	}
	if len(current.rows) > 0 {
		blocks = append(blocks, current)
	}
	return blocks, header, nil
}

// processBlocks runs the cleaning pipeline: resolve the canonical schema on
// the first block, then per block coerce numerics, drop duplicates and
// required-column nulls while threading the overlap buffer, and finally
// remove cross-block overlap duplicates and renumber the synthetic id.
func (ing *Ingestor) processBlocks(source string, header []string, blocks []rowBlock) (*table, *Report, error) {
	resolver, err := resolveSchema(header, ing.cfg)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		Source:        source,
		ColumnsBefore: len(header),
		ColumnsAfter:  len(resolver.header),
		Mapping:       resolver.mapping(),
	}

	var (
		cleaned [][]string
		buffer  [][]string
	)
	for i, blk := range blocks {
		if i > 0 {
			if err := resolver.validate(blk.header, ing.cfg); err != nil {
				return nil, nil, err
			}
		}
		report.RowsBefore += len(blk.rows)

		rows := make([][]string, 0, len(buffer)+len(blk.rows))
		rows = append(rows, buffer...)
		rows = append(rows, cloneRows(blk.rows)...)
		resolver.coerceNumerics(rows)

		rows, dups := dropExactDuplicates(rows)
		rows, nulls := ing.dropRequiredNulls(resolver, rows)

		report.Blocks = append(report.Blocks, BlockReport{
			Index:             i,
			BaseRows:          len(blk.rows),
			DroppedDuplicates: dups,
			DroppedNulls:      nulls,
		})

		cleaned = append(cleaned, rows...)
		if ing.cfg.ChunkOverlap > 0 && len(rows) > 0 {
			start := len(rows) - ing.cfg.ChunkOverlap
			if start < 0 {
				start = 0
			}
			buffer = cloneRows(rows[start:])
		} else {
			buffer = nil
		}
	}

	final, overlapDropped := ing.dropOverlapDuplicates(resolver, cleaned)
	report.OverlapDropped = overlapDropped
	ing.renumberID(resolver, final)
	report.RowsAfter = len(final)

	return &table{header: resolver.header, rows: final}, report, nil
}

// dropRequiredNulls removes rows with an empty cell in any required canonical
// column. The synthesized id is exempt since it is assigned later.
func (ing *Ingestor) dropRequiredNulls(r *schemaResolver, rows [][]string) ([][]string, int) {
	kept := rows[:0]
	dropped := 0
	for _, row := range rows {
		null := false
		for _, role := range r.roles {
			if !role.Required || role.Synthetic {
				continue
			}
			if role.Index >= len(row) || strings.TrimSpace(row[role.Index]) == "" {
				null = true
				break
			}
		}
		if null {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	return kept, dropped
}

// dropOverlapDuplicates removes rows already seen earlier in the concatenated
// stream, comparing all columns except the id.
func (ing *Ingestor) dropOverlapDuplicates(r *schemaResolver, rows [][]string) ([][]string, int) {
	idIndex := -1
	if role, ok := r.role(ing.cfg.IDColumn); ok {
		idIndex = role.Index
	}

	seen := make(map[string]struct{}, len(rows))
	kept := rows[:0]
	dropped := 0
	for _, row := range rows {
		key := rowKey(row, idIndex)
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	return kept, dropped
}

// renumberID assigns 1..M to the synthesized id column.
func (ing *Ingestor) renumberID(r *schemaResolver, rows [][]string) {
	role, ok := r.role(ing.cfg.IDColumn)
	if !ok || !role.Synthetic {
		return
	}
	for i := range rows {
		for len(rows[i]) <= role.Index {
			rows[i] = append(rows[i], "")
		}
		rows[i][role.Index] = strconv.Itoa(i + 1)
	}
}

// emitChunks generates the text chunks, embeds each with retries and inserts
// them into the vector store, replacing the dataset's previous chunks.
// A chunk whose embedding keeps failing is logged and skipped.
func (ing *Ingestor) emitChunks(ctx context.Context, source string, tbl *table, report *Report) error {
	// Rebind roles against the final header (which now carries the
	// synthesized id) so chunk texts use the resolved physical names.
	resolver, err := resolveSchema(tbl.header, ing.cfg)
	if err != nil {
		return agent.Wrap(agent.KindInternal, "rebind schema", err)
	}

	chunks := newChunker(ing.cfg).build(source, tbl, resolver, report)

	if err := ing.store.DeleteSource(ctx, source); err != nil {
		return agent.Wrap(agent.KindInternal, "clear previous chunks", err)
	}

	ing.reporter.Start(len(chunks), "Indexing "+source)
	defer ing.reporter.Finish()

	for i, tc := range chunks {
		vec, err := ing.embedWithRetry(ctx, tc.Text)
		if err != nil {
			ing.logger.Warn("embedding failed, skipping chunk",
				"source", source, "chunk_index", i, "chunk_type", string(tc.Type), "error", err)
			report.EmbeddingErrors++
			ing.reporter.Update(i+1, "skipped "+string(tc.Type))
			continue
		}

		chunk := vectordb.Chunk{
			Text:      tc.Text,
			Embedding: vec,
			Metadata: vectordb.ChunkMetadata{
				Source:     source,
				ChunkIndex: i,
				Type:       tc.Type,
				CreatedAt:  time.Now().UTC(),
			},
		}
		if err := ing.store.Insert(ctx, chunk); err != nil {
			return agent.Wrap(agent.KindInternal, "insert chunk", err)
		}

		report.Chunks = append(report.Chunks, ChunkSummary{
			ID:     chunkID(source, i),
			Type:   string(tc.Type),
			Tokens: len(strings.Fields(tc.Text)),
		})
		report.ChunkIDs = append(report.ChunkIDs, chunkID(source, i))
		ing.reporter.Update(i+1, string(tc.Type))
	}
	return nil
}

// embedWithRetry wraps the embedding call in an exponential backoff so that
// transient provider errors do not lose a chunk.
func (ing *Ingestor) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = ing.retryBudget

	var vec []float32
	op := func() error {
		v, err := embeddings.EmbedOne(ctx, ing.embedder, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, agent.Wrap(agent.KindProvider, "embed chunk", err)
	}
	if len(vec) == 0 {
		return nil, agent.Errorf(agent.KindProvider, "embedder returned no vector")
	}
	return vec, nil
}

func dropExactDuplicates(rows [][]string) ([][]string, int) {
	seen := make(map[string]struct{}, len(rows))
	kept := rows[:0]
	dropped := 0
	for _, row := range rows {
		key := rowKey(row, -1)
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	return kept, dropped
}

// rowKey builds a duplicate-detection key over all columns except skipIndex.
func rowKey(row []string, skipIndex int) string {
	var b strings.Builder
	for i, cell := range row {
		if i == skipIndex {
			continue
		}
		b.WriteString(cell)
		b.WriteByte('\x1f')
	}
	return b.String()
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// chunkID mirrors the vector store's auto-assigned id for a chunk.
func chunkID(source string, index int) string {
	return fmt.Sprintf("%s:%04d", source, index)
}
