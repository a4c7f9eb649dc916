package reconstruct

import (
	"context"
	"encoding/csv"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

// Reconstructor reassembles a dataset from its csv_rows chunks. It reads
// exclusively from the vector store; no filesystem access happens at query
// time.
type Reconstructor struct {
	store  vectordb.VectorStore
	logger *slog.Logger
}

func New(store vectordb.VectorStore, logger *slog.Logger) *Reconstructor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconstructor{store: store, logger: logger}
}

// Reconstruct rebuilds the table for one dataset source. The chunk_type
// metadata narrows the scan to csv_rows chunks; when none are tagged (older
// indexes) it falls back to scanning every chunk of the source. Fails with
// a reconstruction error when no CSV header can be recovered.
func (r *Reconstructor) Reconstruct(ctx context.Context, source string) (*Table, error) {
	rowsType := vectordb.ChunkCSVRows
	chunks, err := r.store.Select(ctx, &vectordb.ChunkFilter{Source: &source, Type: &rowsType}, 0)
	if err != nil {
		return nil, agent.Wrap(agent.KindInternal, "select csv_rows chunks", err)
	}
	if len(chunks) == 0 {
		chunks, err = r.store.Select(ctx, &vectordb.ChunkFilter{Source: &source}, 0)
		if err != nil {
			return nil, agent.Wrap(agent.KindInternal, "select chunks", err)
		}
	}
	if len(chunks) == 0 {
		return nil, agent.Errorf(agent.KindReconstruction, "no chunks indexed for dataset %s", source)
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Metadata.ChunkIndex < chunks[j].Metadata.ChunkIndex
	})

	var (
		table      *Table
		headerLine string
	)
	for _, chunk := range chunks {
		for _, line := range strings.Split(chunk.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if table == nil {
				if names, ok := parseHeaderLine(line); ok {
					table = &Table{Source: source, Columns: names}
					headerLine = line
				}
				continue
			}
			if line == headerLine {
				// Repeated header from the next rows batch.
				continue
			}
			// Only lines that split into exactly as many fields as the
			// header are data rows; padding prose never does.
			fields, err := parseCSVLine(line)
			if err != nil || len(fields) != len(table.Columns) {
				continue
			}
			table.Rows = append(table.Rows, fields)
		}
	}

	if table == nil {
		return nil, agent.Errorf(agent.KindReconstruction, "no csv header recoverable from chunks of %s", source)
	}

	r.logger.Debug("reconstructed dataset",
		"source", source, "rows", len(table.Rows), "columns", len(table.Columns))
	return table, nil
}

// parseHeaderLine applies the header heuristic: the line starts with a
// quoted field, carries at least one comma-separated quoted pair, names at
// least two columns, and at least half of the names are non-numeric.
func parseHeaderLine(line string) ([]string, bool) {
	if !strings.HasPrefix(line, `"`) || !strings.Contains(line, `","`) {
		return nil, false
	}
	names, err := parseCSVLine(line)
	if err != nil || len(names) < 2 {
		return nil, false
	}

	nonNumeric := 0
	for _, name := range names {
		if name == "" {
			return nil, false
		}
		if _, err := strconv.ParseFloat(name, 64); err != nil {
			nonNumeric++
		}
	}
	if nonNumeric*2 < len(names) {
		return nil, false
	}
	return names, true
}

// parseCSVLine splits one line with CSV quoting rules, so cells with
// embedded commas survive the round trip through chunk text.
func parseCSVLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	return r.Read()
}
