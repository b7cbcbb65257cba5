package main

import (
	"os"

	"github.com/spf13/cobra"

	"photodoctor/internal/knowledge"
)

var (
	// Global flags
	knowledgeDir string
	output       string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pdctl",
	Short: "PhotoDoctor operator tool",
	Long: `pdctl inspects and maintains a PhotoDoctor deployment.

Commands:
  check    Validate a knowledge bundle (questions, keywords, catalog, policy)
  replay   Run the diagnosis engine over a saved session history
  seed     Load the product catalog into MongoDB`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&knowledgeDir, "knowledge", os.Getenv("KNOWLEDGE_DIR"), "Knowledge override directory (default: embedded bundle)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "Output format (json, yaml)")
}

func loadBundle() (*knowledge.Bundle, error) {
	return knowledge.Load(knowledgeDir)
}
