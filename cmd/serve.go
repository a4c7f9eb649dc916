package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datachat-ai/datachat/internal/progress"
	"github.com/datachat-ai/datachat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket API server",
	Long: `Starts the datachat server with a REST API (/api/ask, /api/ingest,
/api/sessions/{id}/stats) and a WebSocket chat endpoint (/ws/chat).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := buildApp(ctx, progress.Silent{})
		if err != nil {
			return err
		}
		defer a.close()

		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			a.cfg.Server.Port = port
		}

		srv := server.New(a.cfg.Server, a.orch, a.ing, a.mem, a.logger)

		// Persist the index on shutdown so HTTP ingestions survive restarts.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			fmt.Fprintln(os.Stderr, "\nShutting down...")
			if err := a.persistIndex(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: persisting vector index: %v\n", err)
			}
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "datachat server v%s starting on port %d\n", Version, a.cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Memory database: %s\n", memoryDBPath(a.cfg))
		fmt.Fprintf(os.Stderr, "  Chunks indexed: %d\n", a.store.Count())

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
