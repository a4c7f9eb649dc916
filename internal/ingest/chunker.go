package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/stats"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

// textChunk is one generated chunk text awaiting embedding.
type textChunk struct {
	Type vectordb.ChunkType
	Text string
}

// chunker turns a cleaned table into descriptive text chunks plus literal
// csv_rows chunks that keep the data reconstructable.
type chunker struct {
	cfg config.IngestionConfig
}

func newChunker(cfg config.IngestionConfig) *chunker {
	return &chunker{cfg: cfg}
}

// build generates all chunks for a dataset: one overview, one column-stats
// paragraph (when numeric columns exist), one data-quality summary, and
// enough csv_rows chunks to cover every row. Every text is bounded to
// [chunk_token_min, chunk_token_max] words.
func (c *chunker) build(source string, t *table, r *schemaResolver, rep *Report) []textChunk {
	var chunks []textChunk

	chunks = append(chunks, textChunk{
		Type: vectordb.ChunkDatasetOverview,
		Text: c.bound(c.overviewText(source, t, r, rep), source),
	})

	if text := c.columnStatsText(t, r); text != "" {
		chunks = append(chunks, textChunk{
			Type: vectordb.ChunkColumnStats,
			Text: c.bound(text, source),
		})
	}

	if text := c.dataQualityText(t, r); text != "" {
		chunks = append(chunks, textChunk{
			Type: vectordb.ChunkDataQuality,
			Text: c.bound(text, source),
		})
	}

	for _, text := range c.csvRowTexts(t) {
		chunks = append(chunks, textChunk{
			Type: vectordb.ChunkCSVRows,
			Text: c.bound(text, source),
		})
	}

	return chunks
}

// overviewText describes the dataset: dimensions, column names, time span
// and the cleaning applied during ingestion.
func (c *chunker) overviewText(source string, t *table, r *schemaResolver, rep *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset overview for %s.\n", source)
	fmt.Fprintf(&b, "The dataset contains %d rows and %d columns after cleaning.\n",
		t.rowCount(), t.colCount())

	sample := t.header
	if c.cfg.ChunkColumnSample > 0 && len(sample) > c.cfg.ChunkColumnSample {
		sample = sample[:c.cfg.ChunkColumnSample]
	}
	fmt.Fprintf(&b, "Columns: %s.\n", strings.Join(sample, " "))

	if role, ok := r.role("time"); ok {
		if values := t.numericColumn(role.Index); len(values) > 0 {
			min, max := values[0], values[0]
			for _, v := range values {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			fmt.Fprintf(&b, "Time column %s spans from %s to %s.\n",
				role.Physical, formatNumber(min), formatNumber(max))
		}
	}

	dups, nulls := 0, 0
	for _, blk := range rep.Blocks {
		dups += blk.DroppedDuplicates
		nulls += blk.DroppedNulls
	}
	fmt.Fprintf(&b, "Cleaning summary: %d rows read; %d duplicate rows removed; "+
		"%d rows removed for missing required values; %d overlap duplicates removed across blocks.\n",
		rep.RowsBefore, dups, nulls, rep.OverlapDropped)

	if len(rep.Mapping) > 0 {
		names := make([]string, 0, len(rep.Mapping))
		for canonical := range rep.Mapping {
			names = append(names, canonical)
		}
		sort.Strings(names)
		pairs := make([]string, 0, len(names))
		for _, canonical := range names {
			pairs = append(pairs, fmt.Sprintf("%s=%s", canonical, rep.Mapping[canonical]))
		}
		fmt.Fprintf(&b, "Canonical column mapping: %s.\n", strings.Join(pairs, " "))
	}

	return b.String()
}

// columnStatsText renders descriptive statistics for every declared-numeric
// canonical column as a short paragraph. Empty when no numeric column carries
// parseable values.
func (c *chunker) columnStatsText(t *table, r *schemaResolver) string {
	var b strings.Builder

	names := make([]string, 0, len(r.roles))
	for name := range r.roles {
		names = append(names, name)
	}
	sort.Strings(names)

	wrote := false
	for _, name := range names {
		role := r.roles[name]
		if !role.Numeric || role.Synthetic {
			continue
		}
		values := t.numericColumn(role.Index)
		if len(values) == 0 {
			continue
		}
		if !wrote {
			b.WriteString("Numeric column statistics.\n")
			wrote = true
		}
		d := stats.Describe(values)
		fmt.Fprintf(&b, "Column %s: count %d mean %s std %s min %s q1 %s median %s q3 %s max %s.\n",
			role.Physical, d.Count,
			formatNumber(d.Mean), formatNumber(d.Std), formatNumber(d.Min),
			formatNumber(d.Q1), formatNumber(d.Median), formatNumber(d.Q3), formatNumber(d.Max))
	}
	if !wrote {
		return ""
	}
	return b.String()
}

// dataQualityText summarizes the label distribution (when a class column is
// bound) and the five columns with the most nulls.
func (c *chunker) dataQualityText(t *table, r *schemaResolver) string {
	var b strings.Builder
	b.WriteString("Data quality summary.\n")

	if role, ok := r.role("class"); ok {
		counts := t.valueCounts(role.Index)
		if len(counts) > 0 {
			labels := make([]string, 0, len(counts))
			for label := range counts {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			parts := make([]string, 0, len(labels))
			total := 0
			for _, label := range labels {
				total += counts[label]
			}
			for _, label := range labels {
				pct := float64(counts[label]) / float64(total) * 100
				parts = append(parts, fmt.Sprintf("%s=%d (%s%%)", label, counts[label], formatNumber(pct)))
			}
			fmt.Fprintf(&b, "Class distribution in column %s: %s.\n", role.Physical, strings.Join(parts, " "))
		}
	}

	type colNulls struct {
		name  string
		nulls int
	}
	byNulls := make([]colNulls, 0, t.colCount())
	for i, name := range t.header {
		byNulls = append(byNulls, colNulls{name: name, nulls: t.nullCount(i)})
	}
	sort.SliceStable(byNulls, func(i, j int) bool { return byNulls[i].nulls > byNulls[j].nulls })
	top := byNulls
	if len(top) > 5 {
		top = top[:5]
	}
	parts := make([]string, 0, len(top))
	for _, cn := range top {
		parts = append(parts, fmt.Sprintf("%s=%d", cn.name, cn.nulls))
	}
	fmt.Fprintf(&b, "Null counts by column (top %d): %s.\n", len(top), strings.Join(parts, " "))

	return b.String()
}

// csvRowTexts emits the literal rows in batches of rows_per_text_chunk, each
// batch prefixed by the quoted header line. Together the batches cover every
// row of the table.
func (c *chunker) csvRowTexts(t *table) []string {
	if t.rowCount() == 0 {
		return nil
	}
	perChunk := c.cfg.RowsPerTextChunk
	if perChunk <= 0 {
		perChunk = 20
	}

	quoted := make([]string, len(t.header))
	for i, h := range t.header {
		quoted[i] = `"` + strings.ReplaceAll(h, `"`, `""`) + `"`
	}
	headerLine := strings.Join(quoted, ",")

	var texts []string
	for start := 0; start < t.rowCount(); start += perChunk {
		end := start + perChunk
		if end > t.rowCount() {
			end = t.rowCount()
		}
		var b strings.Builder
		b.WriteString(headerLine)
		b.WriteByte('\n')
		for row := start; row < end; row++ {
			cells := make([]string, t.colCount())
			for col := range cells {
				cells[col] = csvField(t.cell(row, col))
			}
			b.WriteString(strings.Join(cells, ","))
			b.WriteByte('\n')
		}
		texts = append(texts, b.String())
	}
	return texts
}

// bound pads or truncates a chunk text so that its word count lands inside
// [chunk_token_min, chunk_token_max]. Padding lines carry no commas so the
// reconstructor never mistakes them for data rows.
func (c *chunker) bound(text, source string) string {
	min, max := c.cfg.ChunkTokenMin, c.cfg.ChunkTokenMax
	words := len(strings.Fields(text))

	if max > 0 && words > max {
		fields := strings.Fields(text)
		// Truncate on line boundaries where possible so csv_rows keep
		// whole rows; fall back to a hard word cut.
		lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
		kept := ""
		count := 0
		for _, line := range lines {
			lineWords := len(strings.Fields(line))
			if count+lineWords > max {
				break
			}
			kept += line + "\n"
			count += lineWords
		}
		if count >= min && kept != "" {
			text = kept
			words = count
		} else {
			text = strings.Join(fields[:max], " ")
			words = max
		}
	}

	if min > 0 && words < min {
		filler := strings.Fields(fmt.Sprintf(
			"This fragment belongs to the indexed dataset %s and continues its stored context.",
			strings.ReplaceAll(source, ",", " ")))
		var b strings.Builder
		b.WriteString(strings.TrimRight(text, "\n"))
		b.WriteByte('\n')
		for i := 0; words < min; i++ {
			if i > 0 && i%len(filler) == 0 {
				b.WriteByte('\n')
			} else if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(filler[i%len(filler)])
			words++
		}
		b.WriteByte('\n')
		text = b.String()
	}

	return text
}

// csvField quotes a cell when its literal value would change how the line
// splits into fields (embedded comma, quote or newline).
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
