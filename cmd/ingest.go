package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/datachat-ai/datachat/internal/ingest"
	"github.com/datachat-ai/datachat/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pattern...]",
	Short: "Ingest CSV files into the vector index",
	Long: `Reads CSV files, cleans and chunks them, embeds every chunk and stores
the result in the vector index. Accepts file paths or glob patterns
such as 'data/**/*.csv'. Re-ingesting a file replaces its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files match %v", args)
	}

	a, err := buildApp(ctx, progress.NewReporter())
	if err != nil {
		return err
	}
	defer a.close()

	var failed int
	for _, path := range paths {
		report, err := a.ing.Ingest(ctx, path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Error: ingesting %s: %v\n", path, err)
			continue
		}
		printReport(report)
	}

	if err := a.persistIndex(ctx); err != nil {
		return fmt.Errorf("persisting vector index: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

// expandPatterns resolves doublestar globs, passing plain paths through
// so that a missing file surfaces as an ingestion error, not a silent skip.
func expandPatterns(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !hasGlobMeta(arg) {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func hasGlobMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func printReport(r *ingest.Report) {
	fmt.Printf("%s\n", r.Source)
	fmt.Printf("  Rows: %d in, %d kept (%d overlap duplicates dropped)\n", r.RowsBefore, r.RowsAfter, r.OverlapDropped)
	fmt.Printf("  Columns: %d in, %d kept\n", r.ColumnsBefore, r.ColumnsAfter)
	fmt.Printf("  Chunks: %d indexed", len(r.Chunks))
	if r.EmbeddingErrors > 0 {
		fmt.Printf(" (%d embedding failures)", r.EmbeddingErrors)
	}
	fmt.Println()
	if verbose {
		for role, column := range r.Mapping {
			fmt.Printf("  Column %q resolved as %s\n", column, role)
		}
		for _, b := range r.Blocks {
			fmt.Printf("  Block %d: %d rows, %d duplicates dropped, %d null rows dropped\n",
				b.Index, b.BaseRows, b.DroppedDuplicates, b.DroppedNulls)
		}
	}
}
