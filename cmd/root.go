package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "datachat",
	Short: "Conversational analysis of CSV datasets with RAG and session memory",
	Long: `Datachat ingests CSV datasets into a semantic vector index and answers
natural language questions about them, in Portuguese or English.
Statistical questions are computed exactly from the reconstructed data;
open questions are answered by an LLM grounded in retrieved chunks.
Conversations persist across sessions in a local SQLite store.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".datachat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
