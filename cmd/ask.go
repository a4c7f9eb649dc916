package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datachat-ai/datachat/internal/progress"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a natural language question about the indexed datasets",
	Long: `Answers a question about the ingested CSV data. Statistical questions
(média, mediana, correlação, outliers...) are computed exactly from the
data; open questions are answered by the configured LLM grounded in
retrieved chunks. Pass --session to continue a conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("session", "", "session id to continue an existing conversation")
	askCmd.Flags().Bool("json", false, "output the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sessionID, _ := cmd.Flags().GetString("session")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := buildApp(ctx, progress.Silent{})
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.orch.Answer(ctx, args[0], sessionID)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Content)
	if len(resp.Metadata.Charts) > 0 {
		fmt.Println()
		for _, path := range resp.Metadata.Charts {
			fmt.Printf("Gráfico salvo em %s\n", path)
		}
	}
	fmt.Fprintf(os.Stderr, "\n(sessão %s", resp.Metadata.SessionID)
	if resp.Metadata.Intent != "" {
		fmt.Fprintf(os.Stderr, ", intenção %s", resp.Metadata.Intent)
	}
	if resp.Metadata.FromCache {
		fmt.Fprint(os.Stderr, ", resposta em cache")
	}
	fmt.Fprintln(os.Stderr, ")")

	if !resp.Success {
		os.Exit(1)
	}
	return nil
}
