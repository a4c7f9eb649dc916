package cmd

import (
	"github.com/spf13/cobra"

	"github.com/datachat-ai/datachat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize datachat configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure providers and ingestion settings and generates a .datachat.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
