package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datachat-ai/datachat/internal/ingest"
	mcpserver "github.com/datachat-ai/datachat/internal/mcp"
	"github.com/datachat-ai/datachat/internal/progress"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing
ask_dataset, ingest_csv and dataset_overview tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := buildApp(ctx, progress.Silent{})
		if err != nil {
			return err
		}
		defer a.close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "datachat MCP server started on stdio (chunks=%d)\n", a.store.Count())

		srv := mcpserver.NewServer(a.orch, &persistingIngestor{app: a}, a.store)
		return srv.Serve()
	},
}

// persistingIngestor saves the vector index after each successful ingestion,
// since a stdio MCP server has no orderly shutdown to persist on.
type persistingIngestor struct {
	app *app
}

func (p *persistingIngestor) Ingest(ctx context.Context, path string) (*ingest.Report, error) {
	report, err := p.app.ing.Ingest(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := p.app.persistIndex(ctx); err != nil {
		p.app.logger.Warn("persisting vector index failed", "error", err)
	}
	return report, nil
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
