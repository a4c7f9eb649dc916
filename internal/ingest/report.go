package ingest

// BlockReport summarizes the cleaning applied to one streamed row-block.
type BlockReport struct {
	Index             int `json:"index"`
	BaseRows          int `json:"base_rows"` // rows read fresh from the file (excludes overlap)
	DroppedDuplicates int `json:"dropped_duplicates"`
	DroppedNulls      int `json:"dropped_nulls"`
}

// ChunkSummary describes one text chunk emitted into the vector store.
type ChunkSummary struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Tokens int    `json:"tokens"`
}

// Report is the structural result of one ingestion run.
type Report struct {
	Source          string            `json:"source"`
	RowsBefore      int               `json:"rows_before"`
	RowsAfter       int               `json:"rows_after"`
	ColumnsBefore   int               `json:"columns_before"`
	ColumnsAfter    int               `json:"columns_after"`
	OverlapDropped  int               `json:"overlap_dropped"`
	Mapping         map[string]string `json:"canonical_mapping"`
	Blocks          []BlockReport     `json:"blocks"`
	Chunks          []ChunkSummary    `json:"chunks"`
	ChunkIDs        []string          `json:"chunk_ids"`
	EmbeddingErrors int               `json:"embedding_errors"`
}
