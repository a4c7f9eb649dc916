package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datachat-ai/datachat/internal/db"
	"github.com/datachat-ai/datachat/internal/memory"
)

var statsCmd = &cobra.Command{
	Use:   "stats [session-id]",
	Short: "Show memory statistics for a session",
	Long:  `Prints turn counts, context keys, cached analyses and summary embeddings stored for a session.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := db.Open(memoryDBPath(cfg))
	if err != nil {
		return fmt.Errorf("opening memory database: %w", err)
	}
	defer database.Close()

	mem := memory.NewManager(memory.NewStore(database), cfg.Memory)
	stats, err := mem.GetMemoryStats(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading session stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Session %s\n", args[0])
	fmt.Printf("  Turns: %d (%d user, %d agent)\n", stats.Turns, stats.UserQueries, stats.AgentResponses)
	fmt.Printf("  Context keys: %d\n", stats.ContextKeys)
	fmt.Printf("  Cached analyses: %d\n", stats.CachedAnalyses)
	fmt.Printf("  Summary embeddings: %d\n", stats.SummaryEmbeddings)
	return nil
}
